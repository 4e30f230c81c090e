package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-finance-tracker/internal/kvstore"
)

func TestLimiter_FourthCallDenied(t *testing.T) {
	limiter := NewLimiter(kvstore.NewMemory())
	ctx := context.Background()
	policy := Policy{MaxRequests: 3, Window: time.Minute}

	expected := []bool{true, true, true, false}
	for i, want := range expected {
		res, err := limiter.Consume(ctx, "client-a", policy)
		require.NoError(t, err)
		assert.Equal(t, want, res.Allowed, "call %d", i+1)
		assert.Equal(t, 3, res.Limit)
	}

	// The rejecting call still reports a usable backoff hint.
	res, err := limiter.Consume(ctx, "client-a", policy)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.ResetIn, time.Duration(0))
	assert.LessOrEqual(t, res.ResetIn, time.Minute)
}

func TestLimiter_RemainingDecrements(t *testing.T) {
	limiter := NewLimiter(kvstore.NewMemory())
	ctx := context.Background()
	policy := Policy{MaxRequests: 3, Window: time.Minute}

	for _, want := range []int{2, 1, 0, 0} {
		res, err := limiter.Consume(ctx, "client-b", policy)
		require.NoError(t, err)
		assert.Equal(t, want, res.Remaining)
	}
}

func TestLimiter_WindowRestarts(t *testing.T) {
	limiter := NewLimiter(kvstore.NewMemory())
	ctx := context.Background()
	policy := Policy{MaxRequests: 1, Window: 40 * time.Millisecond}

	res, err := limiter.Consume(ctx, "client-c", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Consume(ctx, "client-c", policy)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	time.Sleep(60 * time.Millisecond)

	res, err = limiter.Consume(ctx, "client-c", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(kvstore.NewMemory())
	ctx := context.Background()
	policy := Policy{MaxRequests: 1, Window: time.Minute}

	res, err := limiter.Consume(ctx, "client-d", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.Consume(ctx, "client-e", policy)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiter_ConcurrentConsumeExactBudget(t *testing.T) {
	limiter := NewLimiter(kvstore.NewMemory())
	ctx := context.Background()

	const n = 20
	policy := Policy{MaxRequests: n, Window: time.Minute}

	var wg sync.WaitGroup
	allowed := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.Consume(ctx, "client-f", policy)
			assert.NoError(t, err)
			allowed <- res.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	for ok := range allowed {
		assert.True(t, ok)
	}

	// The very next hit exceeds the budget: the stored count is exactly n.
	res, err := limiter.Consume(ctx, "client-f", policy)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}
