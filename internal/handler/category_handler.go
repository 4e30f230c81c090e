package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-finance-tracker/internal/middleware"
	"go-finance-tracker/internal/model"
	"go-finance-tracker/internal/service"
	"go-finance-tracker/pkg/apierror"
)

type CategoryHandler struct {
	service *service.FinanceService
}

func NewCategoryHandler(service *service.FinanceService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	categories, err := h.service.ListCategories(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, categories, nil)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	var payload model.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	category, err := h.service.CreateCategory(r.Context(), identity.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, category, nil)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	var payload model.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), identity.UserID, chi.URLParam(r, "category_id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, category, nil)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	if err := h.service.DeleteCategory(r.Context(), identity.UserID, chi.URLParam(r, "category_id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
