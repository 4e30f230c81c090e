package kvstore

import (
	"context"
	"time"
)

// SessionRecord is a revocable marker that a token's claims are still
// honored. Storage owns expiry; callers never see expired records.
type SessionRecord struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Store is the shared key-value contract behind session tracking and
// fixed-window rate limiting. Two implementations exist: a Redis-backed
// remote store shared across replicas, and an in-process fallback map.
//
// GetSession returns (nil, nil) when the session does not exist or has
// expired; an error means the backend itself failed.
type Store interface {
	PutSession(ctx context.Context, rec SessionRecord, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*SessionRecord, error)
	// TouchSession re-arms the TTL and refreshes last-accessed time.
	TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error
	DeleteSession(ctx context.Context, sessionID string) error

	// IncrWindow atomically increments the counter for key, opening a new
	// window of the given width on first hit. It returns the count after
	// the increment and the time remaining until the window resets.
	IncrWindow(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}
