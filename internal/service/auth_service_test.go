package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-finance-tracker/internal/kvstore"
	"go-finance-tracker/internal/model"
	"go-finance-tracker/internal/session"
	"go-finance-tracker/internal/token"
	"go-finance-tracker/pkg/apierror"
)

type fakeUserStore struct {
	byID    map[string]model.User
	byEmail map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: map[string]model.User{}, byEmail: map[string]model.User{}}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, apierror.New("NOT_FOUND", "user not found", id, http.StatusNotFound)
	}
	return u, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return model.User{}, apierror.New("NOT_FOUND", "user not found", "", http.StatusNotFound)
	}
	return u, nil
}

func (f *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserStore) Create(_ context.Context, u model.User) error {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserStore) List(_ context.Context) ([]model.PublicUser, error) {
	users := make([]model.PublicUser, 0, len(f.byID))
	for _, u := range f.byID {
		users = append(users, u.Public())
	}
	return users, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *session.Manager, *token.Codec) {
	t.Helper()

	codec := token.NewCodec("test-secret")
	sessions := session.NewManager(kvstore.NewMemory(), time.Minute, false)
	svc := NewAuthService(newFakeUserStore(), codec, sessions, 15*time.Minute)
	return svc, sessions, codec
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _, codec := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Example.com", "password123", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, []string{"user"}, user.Roles)

	result, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := codec.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.NotEmpty(t, claims.SessionID)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "password123", nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob@example.com", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", err.(*apierror.APIError).Code)
}

func TestAuthService_LoginUnknownUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", err.(*apierror.APIError).Code)
}

func TestAuthService_LogoutRevokesSession(t *testing.T) {
	svc, sessions, codec := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "password123", nil)
	require.NoError(t, err)

	result, err := svc.Login(ctx, "carol@example.com", "password123")
	require.NoError(t, err)

	claims, err := codec.Verify(result.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.SessionID))

	_, err = sessions.Validate(ctx, claims.SessionID)
	require.Error(t, err)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "password123", nil)
	require.Error(t, err)

	_, err = svc.Register(ctx, "ok@example.com", "short", nil)
	require.Error(t, err)

	_, err = svc.Register(ctx, "ok@example.com", "password123", []string{"superuser"})
	require.Error(t, err)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dup@example.com", "password123", nil)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dup@example.com", "password123", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, err.(*apierror.APIError).HTTPStatus)
}
