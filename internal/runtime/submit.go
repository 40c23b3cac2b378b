package runtime

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/expr"
)

// SubmitValue handles the submit-single-value action for the input node the
// engine is waiting on. The variable write, derived-variable computation,
// and conditional successor resolution all happen on a working copy that is
// committed only once the whole submission is accepted, so a rejected call
// leaves no partial writes.
func (it *Interpreter) SubmitValue(ctx context.Context, value any) error {
	node, err := it.waitingNode("submit-single-value", domain.KindInput)
	if err != nil {
		return err
	}

	working := it.vars.Clone()
	val := coerceInput(node.InputKind, value)
	if node.SetsVariable != "" {
		working[node.SetsVariable] = val
	}

	// The computation sees the value that was just submitted, not the prior one.
	if node.Compute != nil {
		it.computeInto(ctx, node, working)
	}

	// Conditional successors are tested in declaration order; the first
	// condition that evaluates true wins. A failing evaluation is false:
	// checking continues with the remaining conditions.
	next := node.NextNode
	for _, cond := range node.Conditional {
		ok, condErr := expr.EvalCondition(cond.Condition, working)
		if condErr != nil {
			it.evalWarn(ctx, "condition", cond.Condition, node.ID, condErr)
			continue
		}
		if ok {
			next = cond.NextNode
			break
		}
	}

	it.vars = working
	it.appendMessage(ctx, domain.SpeakerUser, expr.Stringify(val), "")
	return it.advance(ctx, next)
}

// SelectOption handles the select-option action for a choice node. The
// chosen option's declared successor is used directly, with no condition
// evaluation, and the logged user message is the option's label: the system
// records what the user saw themselves choose, never the internal value.
func (it *Interpreter) SelectOption(ctx context.Context, optionID string) error {
	node, err := it.waitingNode("select-option", domain.KindChoice)
	if err != nil {
		return err
	}

	opt, ok := node.Option(optionID)
	if !ok {
		return &domain.UsageError{Action: "select-option", Reason: "unknown option " + strconv.Quote(optionID)}
	}

	if node.SetsVariable != "" {
		it.vars[node.SetsVariable] = opt.Value
	}
	it.appendMessage(ctx, domain.SpeakerUser, opt.Label, "")
	return it.advance(ctx, opt.NextNode)
}

// SubmitMulti handles the submit-multi action for a multi-input node,
// merging the field-name to value mapping wholesale into the variable store.
// No per-field condition logic exists; the node has a single successor.
func (it *Interpreter) SubmitMulti(ctx context.Context, values map[string]any) error {
	node, err := it.waitingNode("submit-multi", domain.KindMultiInput)
	if err != nil {
		return err
	}

	kinds := make(map[string]string, len(node.Fields))
	for _, f := range node.Fields {
		kinds[f.SetsVariable] = f.InputKind
	}

	working := it.vars.Clone()
	for name, v := range values {
		working[name] = coerceInput(kinds[name], v)
	}
	it.vars = working

	it.appendMessage(ctx, domain.SpeakerUser, joinDisplay(node, values), "")
	return it.advance(ctx, node.NextNode)
}

// Extend splices a new chapter into the running session: the graph gains the
// chapter's nodes, the live variable store gains its defaults for names not
// already present, the complete flag clears, and the engine re-enters the
// advancing phase at the chapter's first node. It must not be called while a
// turn is mid-flight.
func (it *Interpreter) Extend(ctx context.Context, ch *domain.Chapter) error {
	if it.inTurn {
		return &domain.UsageError{Action: "extend", Reason: "turn in flight"}
	}

	startID, newDefaults := it.graph.Extend(ch)
	for name, v := range newDefaults {
		if _, exists := it.vars[name]; !exists {
			it.vars[name] = v
		}
	}
	it.nextChapter = ""
	return it.advance(ctx, startID)
}

// NextChapter returns the chapter reference declared by the terminal node,
// if the conversation completed on a chapter boundary.
func (it *Interpreter) NextChapter() string {
	return it.nextChapter
}

// waitingNode guards the submit actions: the engine must be waiting for
// input on a node of the expected kind, otherwise the call is a usage error
// and state stays untouched.
func (it *Interpreter) waitingNode(action, kind string) (domain.Node, error) {
	if it.phase != domain.PhaseWaiting {
		return domain.Node{}, &domain.UsageError{Action: action, Phase: it.phase}
	}
	node, ok := it.graph.Get(it.currentID)
	if !ok {
		return domain.Node{}, &domain.UsageError{Action: action, Reason: "current node missing from graph"}
	}
	if node.Kind != kind {
		return domain.Node{}, &domain.UsageError{Action: action, Phase: it.phase, NodeKind: node.Kind}
	}
	return node, nil
}

// coerceInput normalizes a submitted value for storage: number inputs
// arriving as numeric-looking strings (JSON clients, terminal input) are
// stored as numbers so that conditions like `userAge < 35` keep working.
func coerceInput(inputKind string, value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case string:
		if inputKind == domain.InputNumber {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
		return v
	}
	return value
}

// joinDisplay summarizes a multi-field submission for the chat log, in field
// declaration order.
func joinDisplay(node domain.Node, values map[string]any) string {
	parts := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, f := range node.Fields {
		if v, ok := values[f.SetsVariable]; ok {
			parts = append(parts, expr.Stringify(v))
			seen[f.SetsVariable] = true
		}
	}
	// Values for fields the node does not declare still show up at the end.
	extras := make([]string, 0, len(values))
	for name := range values {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		parts = append(parts, expr.Stringify(values[name]))
	}
	return strings.Join(parts, ", ")
}
