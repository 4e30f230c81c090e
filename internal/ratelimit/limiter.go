package ratelimit

import (
	"context"
	"time"

	"go-finance-tracker/internal/kvstore"
)

// Policy is a fixed-window budget: at most MaxRequests hits per Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// Result reports the outcome of a single consume attempt. ResetIn is how
// long until the current window lapses, suitable for client backoff.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per client key in discrete windows on top of
// the shared key-value store. Rejected attempts still increment the
// counter so retry storms stay pinned to the window that rejected them.
type Limiter struct {
	store  kvstore.Store
	prefix string
}

func NewLimiter(store kvstore.Store) *Limiter {
	return &Limiter{store: store, prefix: "ratelimit:"}
}

func (l *Limiter) Consume(ctx context.Context, key string, policy Policy) (Result, error) {
	count, resetIn, err := l.store.IncrWindow(ctx, l.prefix+key, policy.Window)
	if err != nil {
		return Result{}, err
	}

	remaining := policy.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(policy.MaxRequests),
		Limit:     policy.MaxRequests,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}
