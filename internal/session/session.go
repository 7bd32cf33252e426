// Package session defines the token store port keyed by session id.
package session

import (
	"context"
	"time"

	"github.com/dvloznov/sheets-importer/internal/gauth"
)

// TTL is the session lifetime. The cookie and the stored tokens expire
// together.
const TTL = 24 * time.Hour

// TokenStore associates a TokenSet with a session id.
//
// Store must not return until the write is durably acknowledged: the
// browser may fire a dependent request the moment the authorizing request
// completes, and that request must observe the tokens (read-after-write
// for the same session id). Get returns (nil, nil) when the session has
// no tokens; absence is a normal outcome, not a fault.
type TokenStore interface {
	Store(ctx context.Context, sessionID string, ts *gauth.TokenSet) error
	Get(ctx context.Context, sessionID string) (*gauth.TokenSet, error)
	Delete(ctx context.Context, sessionID string) error
}
