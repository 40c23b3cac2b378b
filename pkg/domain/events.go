package domain

import "context"

// NodeEvent describes a node the engine has entered.
type NodeEvent struct {
	NodeID string
	Kind   string
}

// EvalEvent describes an expression evaluation failure. The engine degrades
// gracefully (false / nil / empty string per call site); hooks exist so an
// observer can surface the authoring bug anyway.
type EvalEvent struct {
	// Site is one of "condition", "compute", "template".
	Site       string
	Expression string
	NodeID     string
	Err        error
}

// Hooks are optional lifecycle callbacks for observability. Nil functions
// are skipped. Hooks must not block: they run inline with the turn.
type Hooks struct {
	OnNodeEnter func(ctx context.Context, e NodeEvent)
	OnMessage   func(ctx context.Context, m Message)
	OnEvalError func(ctx context.Context, e EvalEvent)
}
