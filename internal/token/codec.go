package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-finance-tracker/pkg/apierror"
)

// Claims is the identity assertion carried by a signed credential token.
// Roles defaults to {"user"} when the token carries none. SessionID is set
// when server-side session tracking is enabled for the credential.
type Claims struct {
	UserID    string
	Email     string
	Roles     []string
	SessionID string
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs a self-describing token embedding the claims and expiry.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	roles := claims.Roles
	if len(roles) == 0 {
		roles = []string{"user"}
	}

	mapClaims := jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"roles": roles,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if claims.SessionID != "" {
		mapClaims["sid"] = claims.SessionID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString(c.secret)
}

// Verify validates the signature and expiry and returns the embedded
// claims. Any malformed, forged, or expired token fails with UNAUTHORIZED.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierror.Unauthenticated("invalid token signing method")
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierror.Unauthenticated("invalid or expired token")
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthenticated("invalid token claims")
	}

	claims := &Claims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.SessionID, _ = claimsMap["sid"].(string)

	if rawRoles, ok := claimsMap["roles"].([]interface{}); ok {
		for _, raw := range rawRoles {
			if role, ok := raw.(string); ok {
				claims.Roles = append(claims.Roles, role)
			}
		}
	}
	if len(claims.Roles) == 0 {
		claims.Roles = []string{"user"}
	}

	if claims.UserID == "" {
		return nil, apierror.Unauthenticated("invalid token subject")
	}

	return claims, nil
}
