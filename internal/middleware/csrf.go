package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"

	"go-finance-tracker/pkg/apierror"
)

const (
	// CSRFCookieName holds the reference value. The cookie is deliberately
	// not HttpOnly: the client script must read it to echo it back.
	CSRFCookieName = "csrf_token"
	// CSRFHeaderName carries the client-submitted proof on unsafe methods.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRFGuard implements the double-submit defense: a cookie-resident
// reference value compared against a header-carried proof on every
// state-changing request.
type CSRFGuard struct {
	secure bool
}

func NewCSRFGuard(secure bool) *CSRFGuard {
	return &CSRFGuard{secure: secure}
}

// Generate issues a fresh reference value and sets it as a cookie.
func (g *CSRFGuard) Generate(w http.ResponseWriter) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}

	value := base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: false,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})

	return value, nil
}

// Validate checks the token pair on a state-changing request.
func (g *CSRFGuard) Validate(r *http.Request) error {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return apierror.ForbiddenCSRF("missing csrf cookie")
	}

	proof := r.Header.Get(CSRFHeaderName)
	if proof == "" {
		return apierror.ForbiddenCSRF("missing csrf token")
	}

	if !constantTimeEqual(cookie.Value, proof) {
		return apierror.ForbiddenCSRF("csrf token mismatch")
	}

	return nil
}

// Stage bypasses safe methods unconditionally, lazily issuing the cookie
// when absent so clients obtain a token on any read.
func (g *CSRFGuard) Stage() Stage {
	return func(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
		if isSafeMethod(r.Method) {
			if _, err := r.Cookie(CSRFCookieName); err != nil {
				_, _ = g.Generate(w)
			}
			return r, nil
		}

		if err := g.Validate(r); err != nil {
			return r, err
		}

		return r, nil
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// constantTimeEqual hashes both operands first so the comparison takes
// the same time whatever their lengths.
func constantTimeEqual(a, b string) bool {
	da := sha256.Sum256([]byte(a))
	db := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}
