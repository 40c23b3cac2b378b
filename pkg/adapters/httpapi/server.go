// Package httpapi exposes dialogue sessions over HTTP. Sessions live in a
// SessionStore between requests; each request rehydrates the session,
// applies one action, and persists the result. Typing delays are not slept
// server-side: the delay is reported in the message feed and clients
// animate it themselves.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/internal/metrics"
	"github.com/parleyhq/parley/internal/runtime"
	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/ports"
	"github.com/parleyhq/parley/pkg/session"
)

// Server routes session actions to rehydrated engine instances.
type Server struct {
	loader   ports.ChapterLoader
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *metrics.Metrics
	newID    func() string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts /metrics and feeds engine hooks into the registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithIDGenerator overrides session id generation. Tests use it for
// deterministic ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newID = fn
	}
}

// NewHandler builds the HTTP handler.
func NewHandler(loader ports.ChapterLoader, store ports.SessionStore, opts ...Option) http.Handler {
	s := &Server{
		loader:   loader,
		sessions: session.NewManager(store),
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/chapters", s.handleListChapters)
	r.Post("/sessions", s.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleDeleteSession)
		r.Post("/input", s.action(func(ctx context.Context, sess *parley.Session, body actionRequest) error {
			return sess.Submit(ctx, body.Value)
		}))
		r.Post("/choice", s.action(func(ctx context.Context, sess *parley.Session, body actionRequest) error {
			return sess.Choose(ctx, body.OptionID)
		}))
		r.Post("/form", s.action(func(ctx context.Context, sess *parley.Session, body actionRequest) error {
			return sess.SubmitForm(ctx, body.Values)
		}))
		r.Post("/continue", s.action(func(ctx context.Context, sess *parley.Session, body actionRequest) error {
			followed, err := sess.Continue(ctx)
			if err != nil {
				return err
			}
			if !followed {
				return &domain.UsageError{Action: "continue", Reason: "session has no next chapter"}
			}
			return nil
		}))
	})

	return r
}

type createRequest struct {
	ChapterID string `json:"chapterId"`
}

type actionRequest struct {
	Value    any            `json:"value,omitempty"`
	OptionID string         `json:"optionId,omitempty"`
	Values   map[string]any `json:"values,omitempty"`
}

// sessionResponse is the uniform reply for every session endpoint: the
// observable state plus, while waiting, the node the client must render an
// input affordance for.
type sessionResponse struct {
	SessionID string          `json:"sessionId"`
	State     domain.Snapshot `json:"state"`
	Node      *domain.Node    `json:"node,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	ids, err := s.loader.List(r.Context())
	if err != nil {
		s.logger.Error("list chapters failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chapters")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"chapters": ids})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ChapterID == "" {
		writeError(w, http.StatusBadRequest, "chapterId is required")
		return
	}

	ctx := r.Context()
	ch, err := s.loader.Load(ctx, body.ChapterID)
	if err != nil {
		s.writeActionError(w, err)
		return
	}

	sess, err := parley.New(ch, s.sessionOpts()...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Start(ctx); err != nil {
		s.writeActionError(w, err)
		return
	}

	sessionID := s.newID()
	rec := sess.Record()
	rec.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Save(ctx, sessionID, rec); err != nil {
		s.logger.Error("save session failed", "session", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	if s.metrics != nil {
		s.metrics.SessionStarted()
	}

	s.logger.Info("session created", "session", sessionID, "chapter", body.ChapterID)
	writeJSON(w, http.StatusCreated, toResponse(sessionID, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctx := r.Context()

	rec, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	sess, err := parley.Restore(ctx, rec, s.loader, s.sessionOpts()...)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sessionID, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.logger.Error("delete session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// action wraps the load/rehydrate/apply/save cycle shared by every submit
// endpoint. The whole cycle runs under the session's lock so concurrent
// requests for one session serialize.
func (s *Server) action(apply func(ctx context.Context, sess *parley.Session, body actionRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		// An empty body is a valid request for actions without parameters.
		var body actionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := s.sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
			rec, err := s.sessions.Store().Load(ctx, sessionID)
			if err != nil {
				return err
			}
			sess, err := parley.Restore(ctx, rec, s.loader, s.sessionOpts()...)
			if err != nil {
				return err
			}
			if err := apply(ctx, sess, body); err != nil {
				return err
			}

			updated := sess.Record()
			updated.UpdatedAt = time.Now().UTC()
			if err := s.sessions.Store().Save(ctx, sessionID, updated); err != nil {
				return err
			}
			writeJSON(w, http.StatusOK, toResponse(sessionID, sess))
			return nil
		})
		if err != nil {
			s.writeActionError(w, err)
		}
	}
}

func (s *Server) sessionOpts() []parley.Option {
	opts := []parley.Option{
		parley.WithLogger(s.logger),
		parley.WithChapterLoader(s.loader),
		parley.WithSleep(func(context.Context, time.Duration) {}),
	}
	if s.metrics != nil {
		opts = append(opts, parley.WithHooks(s.metrics.Hooks()))
	}
	return opts
}

// writeActionError maps engine errors to HTTP statuses: rejected input is
// 422, out-of-turn actions are 409, unknown references are 404.
func (s *Server) writeActionError(w http.ResponseWriter, err error) {
	var verr *runtime.ValidationError
	var uerr *domain.UsageError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Message,
			"rule":  verr.Rule,
		})
	case errors.As(err, &uerr):
		writeError(w, http.StatusConflict, uerr.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrChapterNotFound):
		writeError(w, http.StatusNotFound, "chapter not found")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func toResponse(sessionID string, sess *parley.Session) sessionResponse {
	resp := sessionResponse{
		SessionID: sessionID,
		State:     sess.Snapshot(),
	}
	if node, ok := sess.CurrentNode(); ok {
		resp.Node = &node
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
