package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go-finance-tracker/internal/middleware"
	"go-finance-tracker/internal/model"
	"go-finance-tracker/internal/service"
	"go-finance-tracker/pkg/apierror"
)

type TransactionHandler struct {
	service *service.FinanceService
}

func NewTransactionHandler(service *service.FinanceService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transactions, meta, err := h.service.ListTransactions(r.Context(), identity.UserID, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, transactions, meta)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	var payload model.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	transaction, err := h.service.CreateTransaction(r.Context(), identity.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, transaction, nil)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	var payload model.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	transaction, err := h.service.UpdateTransaction(r.Context(), identity.UserID, chi.URLParam(r, "transaction_id"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, transaction, nil)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), identity.UserID, chi.URLParam(r, "transaction_id")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
