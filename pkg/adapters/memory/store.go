// Package memory provides an in-memory session store, the default for the
// CLI and for tests.
package memory

import (
	"context"
	"sync"

	"github.com/parleyhq/parley/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.SessionRecord
	mu   sync.RWMutex
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.SessionRecord),
	}
}

// Save persists a copy of the record so later caller mutations cannot leak
// into the store.
func (s *Store) Save(_ context.Context, sessionID string, rec *domain.SessionRecord) error {
	copied := copyRecord(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves a copy of the stored record.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copyRecord(rec), nil
}

// Delete removes the record. Deleting an unknown session is not an error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func copyRecord(rec *domain.SessionRecord) *domain.SessionRecord {
	copied := *rec
	copied.ChapterIDs = append([]string(nil), rec.ChapterIDs...)
	copied.Snapshot.Variables = rec.Snapshot.Variables.Clone()
	copied.Snapshot.Messages = append([]domain.Message(nil), rec.Snapshot.Messages...)
	return &copied
}
