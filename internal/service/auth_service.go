package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-finance-tracker/internal/model"
	"go-finance-tracker/internal/session"
	"go-finance-tracker/internal/token"
	"go-finance-tracker/pkg/apierror"
)

var allowedRoles = map[string]struct{}{
	"user":   {},
	"editor": {},
	"admin":  {},
}

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	List(ctx context.Context) ([]model.PublicUser, error)
}

// AuthService owns login and registration. A successful login issues a
// credential token and a tracked session together; the token carries the
// session ID so revocation takes effect before the token expires.
type AuthService struct {
	users     userStore
	codec     *token.Codec
	sessions  *session.Manager
	accessTTL time.Duration
}

func NewAuthService(users userStore, codec *token.Codec, sessions *session.Manager, accessTTL time.Duration) *AuthService {
	return &AuthService{users: users, codec: codec, sessions: sessions, accessTTL: accessTTL}
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return model.LoginResult{}, apierror.Unauthenticated("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.LoginResult{}, apierror.Unauthenticated("invalid credentials")
	}

	sessionID, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return model.LoginResult{}, err
	}

	accessToken, err := s.codec.Issue(token.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     user.Roles,
		SessionID: sessionID,
	}, s.accessTTL)
	if err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User:        user.Public(),
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email string, password string, roles []string) (model.PublicUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	if email == "" || !strings.Contains(email, "@") {
		return model.PublicUser{}, apierror.New("BAD_REQUEST", "a valid email is required", "email", http.StatusBadRequest)
	}
	if len(password) < 8 {
		return model.PublicUser{}, apierror.New("BAD_REQUEST", "password must be at least 8 characters", "password", http.StatusBadRequest)
	}

	if len(roles) == 0 {
		roles = []string{"user"}
	}
	for _, role := range roles {
		if _, ok := allowedRoles[role]; !ok {
			return model.PublicUser{}, apierror.New("BAD_REQUEST", "invalid role", role, http.StatusBadRequest)
		}
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.PublicUser{}, err
	}
	if exists {
		return model.PublicUser{}, apierror.New("ALREADY_EXISTS", "email already registered", "", http.StatusConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.PublicUser{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.PublicUser{}, err
	}

	return user.Public(), nil
}

// Logout revokes the session behind the credential. Tokens referencing
// the session fail authentication from this point on.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, sessionID)
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.PublicUser, error) {
	return s.users.List(ctx)
}
