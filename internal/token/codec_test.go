package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_IssueAndVerify(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Issue(Claims{
		UserID:    "user-1",
		Email:     "alice@example.com",
		Roles:     []string{"user", "editor"},
		SessionID: "sid-1",
	}, time.Minute)
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"user", "editor"}, claims.Roles)
	assert.Equal(t, "sid-1", claims.SessionID)
}

func TestCodec_DefaultRole(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Issue(Claims{UserID: "user-1", Email: "a@b.c"}, time.Minute)
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, claims.Roles)
}

func TestCodec_ExpiredTokenRejected(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Issue(Claims{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	require.Error(t, err)
}

func TestCodec_ForgedTokenRejected(t *testing.T) {
	signed, err := NewCodec("secret-a").Issue(Claims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)

	_, err = NewCodec("secret-b").Verify(signed)
	require.Error(t, err)
}

func TestCodec_MalformedTokenRejected(t *testing.T) {
	codec := NewCodec("test-secret")

	_, err := codec.Verify("not.a.token")
	require.Error(t, err)

	_, err = codec.Verify("")
	require.Error(t, err)
}

func TestCodec_OptionalSessionID(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Issue(Claims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Empty(t, claims.SessionID)
}
