// Package session serializes concurrent access to persisted dialogue
// sessions. The interpreter is single-writer by contract; the manager
// enforces that contract for stateless adapters handling parallel requests
// for the same session id.
package session

import (
	"context"
	"sync"

	"github.com/parleyhq/parley/pkg/domain"
	"github.com/parleyhq/parley/pkg/ports"
)

// lockEntry holds one session's mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager wraps a SessionStore with per-session locking. Locks are
// reference counted and removed from the map when the last holder releases,
// so long-running processes do not accumulate a mutex per session ever seen.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewManager creates a manager over a store.
func NewManager(store ports.SessionStore) *Manager {
	return &Manager{
		store: store,
		locks: make(map[string]*lockEntry),
	}
}

// WithLock runs fn while holding the session's lock. Concurrent calls for
// the same id serialize; calls for different ids proceed in parallel.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()
	return fn(ctx)
}

// Load fetches the session record under its lock.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	var rec *domain.SessionRecord
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, sessionID)
		return err
	})
	return rec, err
}

// Save persists the session record under its lock.
func (m *Manager) Save(ctx context.Context, sessionID string, rec *domain.SessionRecord) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, rec)
	})
}

// Delete removes the session record under its lock.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}
