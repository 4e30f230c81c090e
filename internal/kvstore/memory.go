package kvstore

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process fallback backend. TTLs are emulated with a
// deletion timer per entry; counter mutations happen inside a per-key
// critical section so unrelated keys never serialize on each other.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*memSession
	counters map[string]*memCounter
}

type memSession struct {
	rec       SessionRecord
	expiresAt time.Time
	timer     *time.Timer
}

type memCounter struct {
	mu      sync.Mutex
	count   int64
	resetAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sessions: map[string]*memSession{},
		counters: map[string]*memCounter{},
	}
}

func (m *Memory) PutSession(_ context.Context, rec SessionRecord, ttl time.Duration) error {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[rec.SessionID]; ok {
		existing.timer.Stop()
	}

	entry := &memSession{rec: rec, expiresAt: now.Add(ttl)}
	entry.timer = time.AfterFunc(ttl, func() {
		m.expireSession(rec.SessionID)
	})
	m.sessions[rec.SessionID] = entry

	return nil
}

func (m *Memory) GetSession(_ context.Context, sessionID string) (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	// The timer may not have fired yet; treat a stale entry as gone.
	if !time.Now().Before(entry.expiresAt) {
		entry.timer.Stop()
		delete(m.sessions, sessionID)
		return nil, nil
	}

	rec := entry.rec
	return &rec, nil
}

func (m *Memory) TouchSession(_ context.Context, sessionID string, ttl time.Duration) error {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[sessionID]
	if !ok || !now.Before(entry.expiresAt) {
		return nil
	}

	entry.rec.LastAccessed = now
	entry.expiresAt = now.Add(ttl)
	entry.timer.Reset(ttl)

	return nil
}

func (m *Memory) DeleteSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.sessions[sessionID]; ok {
		entry.timer.Stop()
		delete(m.sessions, sessionID)
	}

	return nil
}

func (m *Memory) IncrWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	m.mu.Lock()
	counter, ok := m.counters[key]
	if !ok {
		counter = &memCounter{}
		m.counters[key] = counter
	}
	m.mu.Unlock()

	counter.mu.Lock()
	if !now.Before(counter.resetAt) {
		counter.count = 0
		counter.resetAt = now.Add(window)
		// Schedule cleanup for when the window naturally lapses. A fresh
		// window started in the meantime keeps the entry alive.
		time.AfterFunc(window, func() {
			m.reapCounter(key)
		})
	}
	counter.count++
	count := counter.count
	resetIn := counter.resetAt.Sub(now)
	counter.mu.Unlock()

	return count, resetIn, nil
}

func (m *Memory) expireSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[sessionID]
	if ok && !time.Now().Before(entry.expiresAt) {
		delete(m.sessions, sessionID)
	}
}

func (m *Memory) reapCounter(key string) {
	m.mu.Lock()
	counter, ok := m.counters[key]
	m.mu.Unlock()
	if !ok {
		return
	}

	counter.mu.Lock()
	expired := !time.Now().Before(counter.resetAt)
	counter.mu.Unlock()

	if expired {
		m.mu.Lock()
		if m.counters[key] == counter {
			delete(m.counters, key)
		}
		m.mu.Unlock()
	}
}
