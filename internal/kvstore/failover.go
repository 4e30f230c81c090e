package kvstore

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Failover prefers the remote backend and permanently switches to the
// in-process fallback after the first connectivity failure or timeout.
// The transition is one-way for the process lifetime; recovery is left to
// a supervised restart.
//
// Known limitation: horizontal replicas must share the remote backend for
// sessions and rate-limit windows to be mutually visible. A degraded
// replica is consistent with itself only.
type Failover struct {
	remote   Store
	local    *Memory
	timeout  time.Duration
	degraded atomic.Bool
}

// NewFailover wraps remote with local fallback. A nil remote starts the
// store degraded from birth (memory-only deployments).
func NewFailover(remote Store, local *Memory, timeout time.Duration) *Failover {
	f := &Failover{remote: remote, local: local, timeout: timeout}
	if remote == nil {
		f.degraded.Store(true)
	}

	return f
}

// Degraded reports whether the store has switched to the fallback backend.
func (f *Failover) Degraded() bool {
	return f.degraded.Load()
}

func (f *Failover) PutSession(ctx context.Context, rec SessionRecord, ttl time.Duration) error {
	if !f.degraded.Load() {
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		err := f.remote.PutSession(rctx, rec, ttl)
		cancel()
		if err == nil {
			return nil
		}
		f.degrade("session put", err)
	}

	return f.local.PutSession(ctx, rec, ttl)
}

func (f *Failover) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	if !f.degraded.Load() {
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		rec, err := f.remote.GetSession(rctx, sessionID)
		cancel()
		if err == nil {
			return rec, nil
		}
		f.degrade("session get", err)
	}

	return f.local.GetSession(ctx, sessionID)
}

func (f *Failover) TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if !f.degraded.Load() {
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		err := f.remote.TouchSession(rctx, sessionID, ttl)
		cancel()
		if err == nil {
			return nil
		}
		f.degrade("session touch", err)
	}

	return f.local.TouchSession(ctx, sessionID, ttl)
}

func (f *Failover) DeleteSession(ctx context.Context, sessionID string) error {
	if !f.degraded.Load() {
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		err := f.remote.DeleteSession(rctx, sessionID)
		cancel()
		if err == nil {
			return nil
		}
		f.degrade("session delete", err)
	}

	return f.local.DeleteSession(ctx, sessionID)
}

func (f *Failover) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if !f.degraded.Load() {
		rctx, cancel := context.WithTimeout(ctx, f.timeout)
		count, resetIn, err := f.remote.IncrWindow(rctx, key, window)
		cancel()
		if err == nil {
			return count, resetIn, nil
		}
		f.degrade("rate window incr", err)
	}

	return f.local.IncrWindow(ctx, key, window)
}

func (f *Failover) degrade(op string, err error) {
	if f.degraded.CompareAndSwap(false, true) {
		slog.Warn("remote store unreachable; serving from in-process fallback until restart",
			"op", op, "error", err)
	}
}
