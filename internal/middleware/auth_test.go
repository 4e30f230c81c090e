package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-finance-tracker/internal/kvstore"
	"go-finance-tracker/internal/session"
	"go-finance-tracker/internal/token"
)

func newAuthFixture(t *testing.T) (*Authenticator, *token.Codec, *session.Manager) {
	t.Helper()

	codec := token.NewCodec("test-secret")
	sessions := session.NewManager(kvstore.NewMemory(), time.Minute, false)
	return NewAuthenticator(codec, sessions), codec, sessions
}

func bearerRequest(tokenString string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	return req
}

func TestAuthenticate_ValidToken(t *testing.T) {
	auth, codec, _ := newAuthFixture(t)

	signed, err := codec.Issue(token.Claims{UserID: "user-1", Email: "a@b.c", Roles: []string{"user"}}, time.Minute)
	require.NoError(t, err)

	identity, err := auth.Authenticate(bearerRequest(signed))
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "a@b.c", identity.Email)
	assert.Equal(t, []string{"user"}, identity.Roles)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	auth, codec, _ := newAuthFixture(t)

	signed, err := codec.Issue(token.Claims{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = auth.Authenticate(bearerRequest(signed))
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", asAPIError(err).Code)
}

func TestAuthenticate_MissingCredential(t *testing.T) {
	auth, _, _ := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	_, err := auth.Authenticate(req)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", asAPIError(err).Code)
}

func TestAuthenticate_CookieCredential(t *testing.T) {
	auth, codec, _ := newAuthFixture(t)

	signed, err := codec.Issue(token.Claims{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: session.AccessTokenCookie, Value: signed})

	identity, err := auth.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
}

func TestAuthenticate_HeaderTakesPrecedenceOverCookie(t *testing.T) {
	auth, codec, _ := newAuthFixture(t)

	headerToken, err := codec.Issue(token.Claims{UserID: "header-user"}, time.Minute)
	require.NoError(t, err)

	req := bearerRequest(headerToken)
	req.AddCookie(&http.Cookie{Name: session.AccessTokenCookie, Value: "garbage"})

	identity, err := auth.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "header-user", identity.UserID)
}

func TestAuthenticate_RevokedSession(t *testing.T) {
	auth, codec, sessions := newAuthFixture(t)
	ctx := context.Background()

	sessionID, err := sessions.Create(ctx, "user-1")
	require.NoError(t, err)

	signed, err := codec.Issue(token.Claims{UserID: "user-1", SessionID: sessionID}, time.Minute)
	require.NoError(t, err)

	// Valid while the session lives.
	_, err = auth.Authenticate(bearerRequest(signed))
	require.NoError(t, err)

	// Logout revokes the session; the still-unexpired token dies with it.
	require.NoError(t, sessions.Destroy(ctx, sessionID))

	_, err = auth.Authenticate(bearerRequest(signed))
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", asAPIError(err).Code)
}

func TestAuthenticate_SessionUserMismatch(t *testing.T) {
	auth, codec, sessions := newAuthFixture(t)

	sessionID, err := sessions.Create(context.Background(), "someone-else")
	require.NoError(t, err)

	signed, err := codec.Issue(token.Claims{UserID: "user-1", SessionID: sessionID}, time.Minute)
	require.NoError(t, err)

	_, err = auth.Authenticate(bearerRequest(signed))
	require.Error(t, err)
}

func TestAuthStage_AnnotatesContext(t *testing.T) {
	auth, codec, _ := newAuthFixture(t)

	signed, err := codec.Issue(token.Claims{UserID: "user-1", Email: "a@b.c"}, time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	annotated, err := auth.Stage()(rec, bearerRequest(signed))
	require.NoError(t, err)

	identity, ok := IdentityFromContext(annotated.Context())
	require.True(t, ok)
	assert.Equal(t, "user-1", identity.UserID)
}

func withIdentity(req *http.Request, identity *Identity) *http.Request {
	ctx := context.WithValue(req.Context(), identityContextKey, identity)
	return req.WithContext(ctx)
}

func TestRequireRoles_MatchingRolePasses(t *testing.T) {
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), &Identity{UserID: "u", Roles: []string{"editor"}})

	_, err := RequireRoles("editor")(httptest.NewRecorder(), req)
	assert.NoError(t, err)
}

func TestRequireRoles_MissingRoleRejected(t *testing.T) {
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), &Identity{UserID: "u", Roles: []string{"user"}})

	_, err := RequireRoles("admin")(httptest.NewRecorder(), req)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", asAPIError(err).Code)
}

func TestRequireRoles_AdminSentinelOverrides(t *testing.T) {
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), &Identity{UserID: "u", Roles: []string{"admin"}})

	_, err := RequireRoles("editor")(httptest.NewRecorder(), req)
	assert.NoError(t, err)
}

func TestRequireRoles_CaseSensitive(t *testing.T) {
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/", nil), &Identity{UserID: "u", Roles: []string{"Editor"}})

	_, err := RequireRoles("editor")(httptest.NewRecorder(), req)
	require.Error(t, err)
}

func TestRequireRoles_NoIdentityRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := RequireRoles("editor")(httptest.NewRecorder(), req)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", asAPIError(err).Code)
}
