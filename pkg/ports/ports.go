// Package ports declares the boundary interfaces between the dialogue core
// and its adapters, decoupling chapter content sources and session
// persistence from the interpreter.
package ports

import (
	"context"

	"github.com/parleyhq/parley/pkg/domain"
)

// ChapterLoader resolves chapter references (the nextChapter field of a
// terminal node, or an initial chapter id) to chapter documents.
// Implementations return domain.ErrChapterNotFound for unknown references.
type ChapterLoader interface {
	Load(ctx context.Context, id string) (*domain.Chapter, error)

	// List returns the available chapter ids in deterministic order.
	List(ctx context.Context) ([]string, error)
}

// SessionStore persists session records so stateless adapters (HTTP) can
// rehydrate a session between requests. The interpreter itself never touches
// a store; restart durability of core state is explicitly out of scope.
type SessionStore interface {
	// Save persists the record for a given session ID.
	Save(ctx context.Context, sessionID string, rec *domain.SessionRecord) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// Delete removes the record for a given session ID.
	Delete(ctx context.Context, sessionID string) error
}
