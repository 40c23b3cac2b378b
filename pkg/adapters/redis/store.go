// Package redis provides a Redis-backed session store for multi-instance
// HTTP deployments.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/parleyhq/parley/pkg/domain"
)

// Store implements ports.SessionStore on Redis. Records are stored as JSON
// under a configurable key prefix, with an optional TTL so abandoned
// sessions age out.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration applied on every save. Zero means no
// expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a store over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "parley:session:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Save marshals the record and writes it with the configured TTL.
func (s *Store) Save(ctx context.Context, sessionID string, rec *domain.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session to redis: %w", err)
	}
	return nil
}

// Load fetches and unmarshals the record.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session from redis: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	return &rec, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
