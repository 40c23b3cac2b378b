// Package expr implements the sandboxed expression language used by dialogue
// content for conditional branching, derived variables, and text templating.
//
// Expressions are authored content and potentially untrusted, so evaluation
// is capability-narrow by construction: the only inputs are the expression
// string and a variable snapshot, and the only operations are literals,
// variable lookup, arithmetic, comparisons, boolean logic, string
// concatenation, and the ternary operator. There is no property access, no
// function calls, and no way to reach outside the snapshot.
//
// Unknown variables evaluate to undefined (nil), not an error; semantics
// otherwise follow the loose, JavaScript-flavored rules the authored
// questionnaire content was written against (truthiness of "", 0, false;
// `+` concatenating when either side is a string).
package expr

import "fmt"

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Expression string
	Pos        int
	Msg        string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Pos, e.Expression, e.Msg)
}

// EvalError reports an expression that parsed but could not be evaluated,
// e.g. arithmetic on an undefined variable.
type EvalError struct {
	Expression string
	Msg        string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %s", e.Expression, e.Msg)
}

// Expr is a parsed, reusable expression.
type Expr struct {
	src  string
	root node
}

// Parse compiles an expression string.
func Parse(src string) (*Expr, error) {
	p := &parser{lex: newLexer(src), src: src}
	p.next()
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, &SyntaxError{Expression: src, Pos: p.tok.pos, Msg: fmt.Sprintf("unexpected %q", p.tok.text)}
	}
	return &Expr{src: src, root: root}, nil
}

// Eval evaluates the expression against a variable snapshot. The snapshot is
// never mutated. Results are nil (undefined), bool, float64, or string.
func (e *Expr) Eval(vars map[string]any) (any, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return nil, &EvalError{Expression: e.src, Msg: err.Error()}
	}
	return v, nil
}

// Eval parses and evaluates src in one step.
func Eval(src string, vars map[string]any) (any, error) {
	ex, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return ex.Eval(vars)
}

// EvalCondition evaluates src and coerces the result to a boolean via
// truthiness. On any failure it returns (false, err): branch tests are
// fail-safe, the caller logs and moves on.
func EvalCondition(src string, vars map[string]any) (bool, error) {
	v, err := Eval(src, vars)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// Compute evaluates src and returns the raw result value. On failure it
// returns (nil, err); derived-variable computation never aborts a turn.
func Compute(src string, vars map[string]any) (any, error) {
	return Eval(src, vars)
}
