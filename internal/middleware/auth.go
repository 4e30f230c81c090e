package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-finance-tracker/internal/session"
	"go-finance-tracker/internal/token"
	"go-finance-tracker/pkg/apierror"
)

// Identity is the resolved caller attached to the request context after
// successful authentication.
type Identity struct {
	UserID    string
	Email     string
	Roles     []string
	SessionID string
}

type contextKey string

const identityContextKey contextKey = "identity"

// Authenticator resolves a request's identity from its bearer credential.
// Credential precedence is deterministic: the Authorization header is
// checked first, the access_token cookie second.
type Authenticator struct {
	codec    *token.Codec
	sessions *session.Manager
}

func NewAuthenticator(codec *token.Codec, sessions *session.Manager) *Authenticator {
	return &Authenticator{codec: codec, sessions: sessions}
}

// Authenticate verifies the credential and, when it references a session,
// confirms the session is still active. It never writes a response.
func (a *Authenticator) Authenticate(r *http.Request) (*Identity, error) {
	raw := extractCredential(r)
	if raw == "" {
		return nil, apierror.Unauthenticated("missing credentials")
	}

	claims, err := a.codec.Verify(raw)
	if err != nil {
		return nil, err
	}

	if claims.SessionID != "" {
		userID, err := a.sessions.Validate(r.Context(), claims.SessionID)
		if err != nil {
			return nil, apierror.Unauthenticated("session expired or revoked")
		}
		if userID != claims.UserID {
			return nil, apierror.Unauthenticated("session does not match credential")
		}
	}

	return &Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Roles:     claims.Roles,
		SessionID: claims.SessionID,
	}, nil
}

// Stage wraps Authenticate for the chain, annotating the context.
func (a *Authenticator) Stage() Stage {
	return func(_ http.ResponseWriter, r *http.Request) (*http.Request, error) {
		identity, err := a.Authenticate(r)
		if err != nil {
			return r, err
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		return r.WithContext(ctx), nil
	}
}

// RequireRoles gates a route on role membership. The caller passes when
// its role set intersects the required set, or carries the admin
// sentinel. Role strings are case-sensitive.
func RequireRoles(required ...string) Stage {
	requiredSet := map[string]struct{}{}
	for _, role := range required {
		requiredSet[role] = struct{}{}
	}

	return func(_ http.ResponseWriter, r *http.Request) (*http.Request, error) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			return r, apierror.Unauthenticated("authentication required")
		}

		for _, role := range identity.Roles {
			if role == "admin" {
				return r, nil
			}
			if _, exists := requiredSet[role]; exists {
				return r, nil
			}
		}

		return r, apierror.Forbidden("insufficient permissions")
	}
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	return identity, ok
}

func extractCredential(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" && strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	if cookie, err := r.Cookie(session.AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}

	return ""
}
