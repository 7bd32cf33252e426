// Package redisstore provides the Redis-backed TokenStore.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dvloznov/sheets-importer/internal/gauth"
	"github.com/dvloznov/sheets-importer/internal/session"
)

const keyPrefix = "sheets:tokens:"

// Open initializes a Redis connection pool from a DSN and verifies it with
// a ping.
func Open(dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse DSN: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return client, nil
}

// Store keeps one TokenSet per session id under a TTL'd key.
type Store struct {
	client *redis.Client
}

// NewStore creates a Redis-backed token store over an open client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Store implements session.TokenStore. SET is acknowledged by the server
// before it returns, so a subsequent Get for the same session observes
// the new value. The TTL resets on every write.
func (s *Store) Store(ctx context.Context, sessionID string, ts *gauth.TokenSet) error {
	payload, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("redisstore: marshal tokens: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sessionID, payload, session.TTL).Err(); err != nil {
		return fmt.Errorf("redisstore: store tokens: %w", err)
	}
	return nil
}

// Get implements session.TokenStore. A missing or expired key reads as
// (nil, nil).
func (s *Store) Get(ctx context.Context, sessionID string) (*gauth.TokenSet, error) {
	payload, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get tokens: %w", err)
	}

	var ts gauth.TokenSet
	if err := json.Unmarshal(payload, &ts); err != nil {
		return nil, fmt.Errorf("redisstore: unmarshal tokens: %w", err)
	}
	return &ts, nil
}

// Delete implements session.TokenStore.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redisstore: delete tokens: %w", err)
	}
	return nil
}

// Ensure Store implements the TokenStore interface.
var _ session.TokenStore = (*Store)(nil)
