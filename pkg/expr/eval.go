package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type node interface {
	eval(vars map[string]any) (any, error)
}

type litNode struct{ val any }

func (n *litNode) eval(map[string]any) (any, error) { return n.val, nil }

type identNode struct{ name string }

// Unknown variables are undefined (nil), not an error: authored content may
// reference values the user has not supplied yet.
func (n *identNode) eval(vars map[string]any) (any, error) {
	v, ok := vars[n.name]
	if !ok {
		return nil, nil
	}
	return normalize(v), nil
}

type unaryNode struct {
	op string
	x  node
}

func (n *unaryNode) eval(vars map[string]any) (any, error) {
	v, err := n.x.eval(vars)
	if err != nil {
		return nil, err
	}
	switch n.op {
	case "!":
		return !truthy(v), nil
	case "-":
		f, err := numeric(v)
		if err != nil {
			return nil, err
		}
		return -f, nil
	}
	return nil, fmt.Errorf("unknown unary operator %q", n.op)
}

type condNode struct {
	cond, then, els node
}

func (n *condNode) eval(vars map[string]any) (any, error) {
	c, err := n.cond.eval(vars)
	if err != nil {
		return nil, err
	}
	if truthy(c) {
		return n.then.eval(vars)
	}
	return n.els.eval(vars)
}

type binaryNode struct {
	op   string
	x, y node
}

func (n *binaryNode) eval(vars map[string]any) (any, error) {
	// Short-circuit operators return operand values, not coerced booleans.
	switch n.op {
	case "&&":
		x, err := n.x.eval(vars)
		if err != nil {
			return nil, err
		}
		if !truthy(x) {
			return x, nil
		}
		return n.y.eval(vars)
	case "||":
		x, err := n.x.eval(vars)
		if err != nil {
			return nil, err
		}
		if truthy(x) {
			return x, nil
		}
		return n.y.eval(vars)
	}

	x, err := n.x.eval(vars)
	if err != nil {
		return nil, err
	}
	y, err := n.y.eval(vars)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "+":
		if xs, ok := x.(string); ok {
			return xs + Stringify(y), nil
		}
		if ys, ok := y.(string); ok {
			return Stringify(x) + ys, nil
		}
		return arith(x, y, func(a, b float64) (float64, error) { return a + b, nil })
	case "-":
		return arith(x, y, func(a, b float64) (float64, error) { return a - b, nil })
	case "*":
		return arith(x, y, func(a, b float64) (float64, error) { return a * b, nil })
	case "/":
		return arith(x, y, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		})
	case "%":
		return arith(x, y, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return float64(int64(a) % int64(b)), nil
		})
	case "==":
		return looseEqual(x, y), nil
	case "!=":
		return !looseEqual(x, y), nil
	case "<", "<=", ">", ">=":
		return compare(n.op, x, y)
	}
	return nil, fmt.Errorf("unknown operator %q", n.op)
}

func arith(x, y any, op func(a, b float64) (float64, error)) (any, error) {
	a, err := numeric(x)
	if err != nil {
		return nil, err
	}
	b, err := numeric(y)
	if err != nil {
		return nil, err
	}
	return op(a, b)
}

func compare(op string, x, y any) (any, error) {
	if xs, xok := x.(string); xok {
		if ys, yok := y.(string); yok {
			switch op {
			case "<":
				return xs < ys, nil
			case "<=":
				return xs <= ys, nil
			case ">":
				return xs > ys, nil
			case ">=":
				return xs >= ys, nil
			}
		}
	}
	a, err := numeric(x)
	if err != nil {
		return nil, err
	}
	b, err := numeric(y)
	if err != nil {
		return nil, err
	}
	switch op {
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	}
	return nil, fmt.Errorf("unknown comparison %q", op)
}

// looseEqual compares across the string/number boundary the way the authored
// content expects ("35" == 35 is true); otherwise values of different types
// are unequal.
func looseEqual(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	if xb, ok := x.(bool); ok {
		yb, ok := y.(bool)
		return ok && xb == yb
	}
	if yb, ok := y.(bool); ok {
		xb, ok := x.(bool)
		return ok && xb == yb
	}
	xs, xIsStr := x.(string)
	ys, yIsStr := y.(string)
	if xIsStr && yIsStr {
		return xs == ys
	}
	a, aerr := numeric(x)
	b, berr := numeric(y)
	if aerr == nil && berr == nil {
		return a == b
	}
	return false
}

// truthy follows the JS rules the original content relied on.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	}
	return true
}

func numeric(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", val)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("undefined value in numeric context")
	}
	return 0, fmt.Errorf("%T is not a number", v)
}

// normalize widens snapshot values to the evaluator's canonical types.
func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case float64, bool, string, nil:
		return val
	}
	return v
}

// Stringify renders a value with its natural string form; nil renders empty.
// Whole numbers drop the trailing ".0" a naive float format would add.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
