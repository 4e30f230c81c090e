package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-finance-tracker/internal/kvstore"
	"go-finance-tracker/internal/model"
)

func TestManager_CreateAndValidate(t *testing.T) {
	mgr := NewManager(kvstore.NewMemory(), time.Minute, false)
	ctx := context.Background()

	sessionID, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)

	userID, err := mgr.Validate(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	// Validation is idempotent.
	userID, err = mgr.Validate(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestManager_DestroyRevokes(t *testing.T) {
	mgr := NewManager(kvstore.NewMemory(), time.Minute, false)
	ctx := context.Background()

	sessionID, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, mgr.Destroy(ctx, sessionID))

	_, err = mgr.Validate(ctx, sessionID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSessionNotFound))
}

func TestManager_UnknownSession(t *testing.T) {
	mgr := NewManager(kvstore.NewMemory(), time.Minute, false)

	_, err := mgr.Validate(context.Background(), "never-issued")
	assert.True(t, errors.Is(err, model.ErrSessionNotFound))
}

func TestManager_SlidingRefreshKeepsSessionAlive(t *testing.T) {
	mgr := NewManager(kvstore.NewMemory(), 60*time.Millisecond, true)
	ctx := context.Background()

	sessionID, err := mgr.Create(ctx, "user-1")
	require.NoError(t, err)

	// Keep touching inside the TTL; the session must outlive several
	// original windows.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		_, err := mgr.Validate(ctx, sessionID)
		require.NoError(t, err)
	}
}

func TestManager_IDsAreUnique(t *testing.T) {
	a, err := GenerateID()
	require.NoError(t, err)
	b, err := GenerateID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 43) // 32 bytes base64url
}
