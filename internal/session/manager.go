package session

import (
	"context"
	"time"

	"go-finance-tracker/internal/kvstore"
	"go-finance-tracker/internal/model"
)

// Manager tracks revocable sessions through the key-value store. It never
// touches a backend directly; failover between Redis and the in-process
// map happens underneath the kvstore.Store interface.
type Manager struct {
	store   kvstore.Store
	ttl     time.Duration
	sliding bool
}

// NewManager creates a session manager. When sliding is set, each
// validated access re-arms the TTL; otherwise the TTL set at creation
// governs expiry.
func NewManager(store kvstore.Store, ttl time.Duration, sliding bool) *Manager {
	return &Manager{store: store, ttl: ttl, sliding: sliding}
}

// Create opens a new session for the user and returns its identifier.
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	sessionID, err := GenerateID()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	rec := kvstore.SessionRecord{
		SessionID:    sessionID,
		UserID:       userID,
		CreatedAt:    now,
		LastAccessed: now,
	}

	if err := m.store.PutSession(ctx, rec, m.ttl); err != nil {
		return "", err
	}

	return sessionID, nil
}

// Validate confirms the session is still active and returns its owner.
// Reads are idempotent apart from the optional sliding-TTL refresh.
func (m *Manager) Validate(ctx context.Context, sessionID string) (string, error) {
	rec, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", model.ErrSessionNotFound
	}

	if m.sliding {
		if err := m.store.TouchSession(ctx, sessionID, m.ttl); err != nil {
			return "", err
		}
	}

	return rec.UserID, nil
}

// Destroy revokes the session. Destroying an unknown session is a no-op.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	return m.store.DeleteSession(ctx, sessionID)
}
