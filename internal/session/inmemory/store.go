// Package inmemory provides a TokenStore for local runs and tests. Data is
// lost on restart; use the Redis store for anything shared.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/sheets-importer/internal/gauth"
	"github.com/dvloznov/sheets-importer/internal/session"
)

type entry struct {
	tokens    gauth.TokenSet
	expiresAt time.Time
}

// Store is an in-memory implementation of session.TokenStore. Safe for
// concurrent use. The mutex gives the read-after-write guarantee: Store
// returns only after the map holds the new value.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewStore creates a new in-memory token store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Store implements session.TokenStore. It overwrites any previous TokenSet
// for the session and resets the TTL.
func (s *Store) Store(ctx context.Context, sessionID string, ts *gauth.TokenSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid external modifications
	s.entries[sessionID] = entry{tokens: *ts, expiresAt: s.now().Add(session.TTL)}
	return nil
}

// Get implements session.TokenStore. Expired entries are treated as absent
// and dropped lazily.
func (s *Store) Get(ctx context.Context, sessionID string) (*gauth.TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[sessionID]
	if !exists {
		return nil, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, sessionID)
		return nil, nil
	}

	tokens := e.tokens
	return &tokens, nil
}

// Delete implements session.TokenStore. Deleting an absent session is a
// no-op.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}

// Ensure Store implements the TokenStore interface.
var _ session.TokenStore = (*Store)(nil)
