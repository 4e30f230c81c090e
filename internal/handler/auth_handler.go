package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go-finance-tracker/internal/middleware"
	"go-finance-tracker/internal/model"
	"go-finance-tracker/internal/service"
	"go-finance-tracker/internal/session"
	"go-finance-tracker/pkg/apierror"
)

type AuthHandler struct {
	service   *service.AuthService
	csrf      *middleware.CSRFGuard
	accessTTL time.Duration
	secure    bool
}

func NewAuthHandler(service *service.AuthService, csrf *middleware.CSRFGuard, accessTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{service: service, csrf: csrf, accessTTL: accessTTL, secure: secure}
}

// Login issues the credential token as both a response field and an
// HttpOnly cookie, plus a fresh CSRF cookie for the browser session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	session.SetTokenCookie(w, result.AccessToken, h.accessTTL, h.secure)
	if _, err := h.csrf.Generate(w); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.Register(r.Context(), payload.Email, payload.Password, payload.Roles)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	if err := h.service.Logout(r.Context(), identity.SessionID); err != nil {
		writeError(w, err)
		return
	}

	session.ClearTokenCookie(w, h.secure)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	user, err := h.service.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

// CSRFToken hands the double-submit reference to clients that have not
// yet performed a safe request through the guard.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	value, err := h.csrf.Generate(w)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"csrf_token": value}, nil)
}
