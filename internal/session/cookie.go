package session

import (
	"net/http"
	"time"
)

// AccessTokenCookie is the HttpOnly cookie carrying the credential token
// for browser clients.
const AccessTokenCookie = "access_token"

// SetTokenCookie issues the credential cookie. HttpOnly keeps it out of
// reach of scripts; SameSite=Strict scopes it to same-site requests.
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearTokenCookie removes the credential cookie on logout.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
