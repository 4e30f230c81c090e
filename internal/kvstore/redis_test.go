package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTest(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedis(mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestNewRedis_ConnectionFailure(t *testing.T) {
	_, err := NewRedis("127.0.0.1:1", "")
	require.Error(t, err)
}

func TestRedis_SessionRoundtrip(t *testing.T) {
	store, _ := setupRedisTest(t)
	ctx := context.Background()

	rec := SessionRecord{SessionID: "sid-1", UserID: "user-1", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.PutSession(ctx, rec, time.Minute))

	got, err := store.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "sid-1", got.SessionID)
}

func TestRedis_SessionMissingReturnsNil(t *testing.T) {
	store, _ := setupRedisTest(t)

	got, err := store.GetSession(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_SessionExpiresWithTTL(t *testing.T) {
	store, mr := setupRedisTest(t)
	ctx := context.Background()

	rec := SessionRecord{SessionID: "sid-ttl", UserID: "user-1"}
	require.NoError(t, store.PutSession(ctx, rec, time.Minute))

	mr.FastForward(2 * time.Minute)

	got, err := store.GetSession(ctx, "sid-ttl")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_DeleteSession(t *testing.T) {
	store, _ := setupRedisTest(t)
	ctx := context.Background()

	rec := SessionRecord{SessionID: "sid-del", UserID: "user-1"}
	require.NoError(t, store.PutSession(ctx, rec, time.Minute))
	require.NoError(t, store.DeleteSession(ctx, "sid-del"))

	got, err := store.GetSession(ctx, "sid-del")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_TouchExtendsTTL(t *testing.T) {
	store, mr := setupRedisTest(t)
	ctx := context.Background()

	rec := SessionRecord{SessionID: "sid-touch", UserID: "user-1"}
	require.NoError(t, store.PutSession(ctx, rec, time.Minute))

	mr.FastForward(30 * time.Second)
	require.NoError(t, store.TouchSession(ctx, "sid-touch", time.Minute))
	mr.FastForward(45 * time.Second)

	got, err := store.GetSession(ctx, "sid-touch")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRedis_IncrWindow(t *testing.T) {
	store, mr := setupRedisTest(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, resetIn, err := store.IncrWindow(ctx, "rl:client-a", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Greater(t, resetIn, time.Duration(0))
		assert.LessOrEqual(t, resetIn, time.Minute)
	}

	mr.FastForward(2 * time.Minute)

	count, _, err := store.IncrWindow(ctx, "rl:client-a", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
