// Package runtime implements the dialogue turn engine: the state machine
// that walks the content graph, renders node content against the variable
// store, and pauses for user input.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/logging"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/expr"
	"github.com/parleyhq/parley/pkg/graph"
)

// SleepFunc suspends the calling turn for the typing-indicator duration.
// The default implementation is a context-aware sleep; adapters that must
// not block (HTTP) and tests inject a no-op.
type SleepFunc func(ctx context.Context, d time.Duration)

func defaultSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Interpreter owns the live state of one dialogue session: the variable
// store, the message log, and the turn phase. It is single-writer by
// contract: a new turn begins only after the previous one has settled into
// waiting or complete.
type Interpreter struct {
	graph    *graph.Graph
	logger   *slog.Logger
	hooks    domain.Hooks
	sleep    SleepFunc
	renderer *expr.Renderer
	now      func() time.Time
	newID    func() string

	phase       domain.Phase
	currentID   string
	nextChapter string
	typing      bool
	started     bool
	inTurn      bool

	vars     domain.Vars
	messages []domain.Message
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets a structured logger for evaluation and navigation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(it *Interpreter) {
		if logger != nil {
			it.logger = logger
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(it *Interpreter) {
		it.hooks = hooks
	}
}

// WithSleep overrides the typing-delay suspension.
func WithSleep(sleep SleepFunc) Option {
	return func(it *Interpreter) {
		if sleep != nil {
			it.sleep = sleep
		}
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(it *Interpreter) {
		if now != nil {
			it.now = now
		}
	}
}

// New creates an interpreter over a content graph, with the variable store
// seeded from the graph's declared defaults.
func New(g *graph.Graph, opts ...Option) *Interpreter {
	it := &Interpreter{
		graph:    g,
		logger:   logging.NewNop(),
		sleep:    defaultSleep,
		renderer: expr.NewRenderer(),
		now:      time.Now,
		newID:    uuid.NewString,
		phase:    domain.PhaseAdvancing,
		vars:     g.Defaults(),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// NewFromSnapshot rehydrates an interpreter from a persisted snapshot.
// The graph must contain the chapters that were loaded when the snapshot
// was taken.
func NewFromSnapshot(g *graph.Graph, snap domain.Snapshot, opts ...Option) *Interpreter {
	it := New(g, opts...)
	it.started = true
	it.phase = snap.Phase
	it.currentID = snap.CurrentNodeID
	it.nextChapter = snap.NextChapter
	if snap.Variables != nil {
		it.vars = snap.Variables.Clone()
	}
	it.messages = append([]domain.Message(nil), snap.Messages...)
	return it
}

// Start runs the first turn from the graph's entry node. It returns once
// the engine is waiting for input or the conversation is complete.
func (it *Interpreter) Start(ctx context.Context) error {
	if it.started {
		return &domain.UsageError{Action: "start", Reason: "session already started"}
	}
	it.started = true
	return it.advance(ctx, it.graph.EntryID())
}

// Snapshot returns the read-only projection of interpreter state. The
// returned value shares nothing with the interpreter's internals.
func (it *Interpreter) Snapshot() domain.Snapshot {
	msgs := make([]domain.Message, len(it.messages))
	copy(msgs, it.messages)
	snap := domain.Snapshot{
		Phase:       it.phase,
		Typing:      it.typing,
		NextChapter: it.nextChapter,
		Variables:   it.vars.Clone(),
		Messages:    msgs,
	}
	switch it.phase {
	case domain.PhaseWaiting:
		snap.CurrentNodeID = it.currentID
		snap.WaitingForInput = true
	case domain.PhaseComplete:
		snap.Complete = true
	default:
		snap.CurrentNodeID = it.currentID
	}
	return snap
}

// CurrentNode returns the node the engine is waiting on, so the
// presentation boundary can pick the input widget and validation rules.
func (it *Interpreter) CurrentNode() (domain.Node, bool) {
	if it.phase != domain.PhaseWaiting {
		return domain.Node{}, false
	}
	return it.graph.Get(it.currentID)
}

// Phase returns the current turn phase.
func (it *Interpreter) Phase() domain.Phase {
	return it.phase
}

// advance processes nodes starting at id until the engine settles into
// waiting or complete. A dangling reference is a navigation failure: logged,
// then the conversation ends in a well-defined state rather than panicking.
func (it *Interpreter) advance(ctx context.Context, id string) error {
	it.inTurn = true
	it.phase = domain.PhaseAdvancing
	defer func() { it.inTurn = false }()

	for {
		if id == "" {
			it.complete()
			return nil
		}

		node, ok := it.graph.Get(id)
		if !ok {
			navErr := &domain.NavigationError{From: it.currentID, Target: id}
			it.logger.Warn("navigation failed, ending conversation", "error", navErr)
			it.complete()
			return nil
		}
		it.currentID = id
		if it.hooks.OnNodeEnter != nil {
			it.hooks.OnNodeEnter(ctx, domain.NodeEvent{NodeID: node.ID, Kind: node.Kind})
		}

		switch node.Kind {
		case domain.KindAIMessage:
			it.typing = true
			it.sleep(ctx, node.Delay())
			it.typing = false

			// Compute before rendering so the node's own content can
			// reference the value it just derived.
			if node.Compute != nil {
				it.computeInto(ctx, node, it.vars)
			}

			it.appendMessage(ctx, domain.SpeakerAI, it.renderText(ctx, node), node.ID)

			if node.IsChapterEnd {
				it.nextChapter = node.NextChapter
				it.complete()
				return nil
			}
			id = node.NextNode

		case domain.KindInput, domain.KindChoice, domain.KindMultiInput:
			it.appendMessage(ctx, domain.SpeakerAI, it.renderText(ctx, node), node.ID)
			it.phase = domain.PhaseWaiting
			return nil

		default:
			it.logger.Warn("unknown node kind, ending conversation", "node", node.ID, "kind", node.Kind)
			it.complete()
			return nil
		}
	}
}

func (it *Interpreter) complete() {
	it.phase = domain.PhaseComplete
	it.currentID = ""
}

func (it *Interpreter) appendMessage(ctx context.Context, speaker, content, nodeID string) {
	msg := domain.Message{
		ID:      it.newID(),
		Speaker: speaker,
		Content: content,
		Time:    it.now(),
		NodeID:  nodeID,
	}
	it.messages = append(it.messages, msg)
	if it.hooks.OnMessage != nil {
		it.hooks.OnMessage(ctx, msg)
	}
}

// renderText resolves the node's content template against the current
// variable snapshot. Span failures substitute empty text and are reported,
// never raised.
func (it *Interpreter) renderText(ctx context.Context, node domain.Node) string {
	it.renderer.OnError = func(expression string, err error) {
		it.evalWarn(ctx, "template", expression, node.ID, err)
	}
	return it.renderer.Render(node.Content, it.vars)
}

// computeInto evaluates a derived-variable expression against vars and
// merges the result. Failures are logged and skipped; a broken computation
// must not abort node processing.
func (it *Interpreter) computeInto(ctx context.Context, node domain.Node, vars domain.Vars) {
	v, err := expr.Compute(node.Compute.Logic, vars)
	if err != nil {
		it.evalWarn(ctx, "compute", node.Compute.Logic, node.ID, err)
		return
	}
	vars[node.Compute.Name] = v
}

func (it *Interpreter) evalWarn(ctx context.Context, site, expression, nodeID string, err error) {
	it.logger.Warn("expression evaluation failed",
		"site", site,
		"expression", expression,
		"node", nodeID,
		"error", err,
	)
	if it.hooks.OnEvalError != nil {
		it.hooks.OnEvalError(ctx, domain.EvalEvent{Site: site, Expression: expression, NodeID: nodeID, Err: err})
	}
}
