// Package session implements server-side sessions: an opaque token held by
// the client in a signed cookie maps to a user id in a Store.  The Store is an
// interface so the process-local map can be replaced by Redis without
// touching the guard logic.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Session is the value bound to a token.
type Session struct {
	UserID    uint64    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store persists sessions keyed by token.  Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, token string) (Session, error)
	Set(ctx context.Context, token string, s Session, ttl time.Duration) error
	// Touch extends the expiry of an existing session by ttl from now.
	Touch(ctx context.Context, token string, ttl time.Duration) error
	// Destroy removes the token.  Unknown tokens are not an error.
	Destroy(ctx context.Context, token string) error
}
