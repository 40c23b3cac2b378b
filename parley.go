package parley

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/parleyhq/parley/internal/runtime"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/graph"
	"github.com/parleyhq/parley/pkg/ports"
)

// Version is the library version, also reported by the CLI.
const Version = "0.3.0"

// Session is the high-level entry point for the Parley library. It wraps the
// internal interpreter and, when a ChapterLoader is configured, resolves
// chapter references on completion so callers can chain chapters by id.
type Session struct {
	interp *runtime.Interpreter
	graph  *graph.Graph
	loader ports.ChapterLoader
	logger *slog.Logger
	hooks  domain.Hooks
	sleep  runtime.SleepFunc
}

// Option defines a functional option for configuring a Session.
type Option func(*Session)

// WithLogger sets a custom structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithSleep replaces the typing-delay sleep. Server adapters pass a no-op so
// requests return immediately and clients animate the delay themselves.
func WithSleep(sleep runtime.SleepFunc) Option {
	return func(s *Session) {
		s.sleep = sleep
	}
}

// WithChapterLoader injects a chapter source used by Continue to resolve the
// nextChapter reference of a terminal node.
func WithChapterLoader(l ports.ChapterLoader) Option {
	return func(s *Session) {
		s.loader = l
	}
}

// New creates a session over a single chapter. The conversation does not run
// until Start is called.
func New(ch *domain.Chapter, opts ...Option) (*Session, error) {
	if ch == nil {
		return nil, fmt.Errorf("chapter is required")
	}
	if len(ch.Nodes) == 0 {
		return nil, fmt.Errorf("chapter %q has no nodes", ch.Info.ID)
	}

	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	s.graph = graph.New(ch)
	s.interp = runtime.New(s.graph, s.runtimeOpts()...)
	return s, nil
}

// Restore rebuilds a session from a persisted record, reloading every chapter
// the session had accumulated and replaying the snapshot on top. A loader is
// required because the record stores chapter ids, not chapter documents.
func Restore(ctx context.Context, rec *domain.SessionRecord, loader ports.ChapterLoader, opts ...Option) (*Session, error) {
	if rec == nil {
		return nil, fmt.Errorf("session record is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("chapter loader is required")
	}
	if len(rec.ChapterIDs) == 0 {
		return nil, fmt.Errorf("session record names no chapters")
	}

	s := &Session{loader: loader}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	first, err := loader.Load(ctx, rec.ChapterIDs[0])
	if err != nil {
		return nil, fmt.Errorf("load chapter %q: %w", rec.ChapterIDs[0], err)
	}
	s.graph = graph.New(first)
	for _, id := range rec.ChapterIDs[1:] {
		ch, err := loader.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load chapter %q: %w", id, err)
		}
		s.graph.Extend(ch)
	}

	s.interp = runtime.NewFromSnapshot(s.graph, rec.Snapshot, s.runtimeOpts()...)
	return s, nil
}

func (s *Session) runtimeOpts() []runtime.Option {
	opts := []runtime.Option{
		runtime.WithLogger(s.logger),
		runtime.WithHooks(s.hooks),
	}
	if s.sleep != nil {
		opts = append(opts, runtime.WithSleep(s.sleep))
	}
	return opts
}

// Start begins the conversation, advancing through authored speech until the
// first node that needs the user. Calling it twice is a usage error.
func (s *Session) Start(ctx context.Context) error {
	return s.interp.Start(ctx)
}

// Submit delivers a single value to the input node the session is waiting
// on. The value is validated against the node's declared constraints before
// it reaches the interpreter.
func (s *Session) Submit(ctx context.Context, value any) error {
	if node, ok := s.interp.CurrentNode(); ok {
		if err := runtime.ValidateInput(node, value); err != nil {
			return err
		}
	}
	return s.interp.SubmitValue(ctx, value)
}

// Choose selects one of the waiting choice node's options by id.
func (s *Session) Choose(ctx context.Context, optionID string) error {
	return s.interp.SelectOption(ctx, optionID)
}

// SubmitForm delivers a multi-field submission, validating required fields
// first.
func (s *Session) SubmitForm(ctx context.Context, values map[string]any) error {
	if node, ok := s.interp.CurrentNode(); ok && node.Kind == domain.KindMultiInput {
		for _, f := range node.Fields {
			if err := runtime.ValidateField(f, values[f.SetsVariable]); err != nil {
				return err
			}
		}
	}
	return s.interp.SubmitMulti(ctx, values)
}

// Continue follows the completed conversation's nextChapter reference: the
// referenced chapter is loaded and spliced into the running session. It
// reports false when the session did not end on a chapter boundary.
func (s *Session) Continue(ctx context.Context) (bool, error) {
	next := s.interp.NextChapter()
	if next == "" {
		return false, nil
	}
	if s.loader == nil {
		return false, fmt.Errorf("chapter %q referenced but no loader configured", next)
	}
	ch, err := s.loader.Load(ctx, next)
	if err != nil {
		return false, fmt.Errorf("load chapter %q: %w", next, err)
	}
	if err := s.interp.Extend(ctx, ch); err != nil {
		return false, err
	}
	return true, nil
}

// Extend splices an already-loaded chapter into the session.
func (s *Session) Extend(ctx context.Context, ch *domain.Chapter) error {
	return s.interp.Extend(ctx, ch)
}

// Snapshot returns a deep copy of the observable session state.
func (s *Session) Snapshot() domain.Snapshot {
	return s.interp.Snapshot()
}

// Record packages the session for persistence: the chapter ids needed to
// rebuild its graph plus the current snapshot.
func (s *Session) Record() *domain.SessionRecord {
	return &domain.SessionRecord{
		ChapterIDs: s.graph.ChapterIDs(),
		Snapshot:   s.interp.Snapshot(),
	}
}

// CurrentNode returns the node the session is waiting on, if any. Adapters
// use it to present the right input affordance (free text, options, form).
func (s *Session) CurrentNode() (domain.Node, bool) {
	return s.interp.CurrentNode()
}

// Phase reports where the session is in its turn cycle.
func (s *Session) Phase() domain.Phase {
	return s.interp.Phase()
}

// NextChapter returns the pending chapter reference, if the conversation
// completed on a chapter boundary.
func (s *Session) NextChapter() string {
	return s.interp.NextChapter()
}
