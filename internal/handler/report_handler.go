package handler

import (
	"net/http"

	"go-finance-tracker/internal/middleware"
	"go-finance-tracker/internal/service"
	"go-finance-tracker/pkg/apierror"
)

type ReportHandler struct {
	service *service.FinanceService
}

func NewReportHandler(service *service.FinanceService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary reports per-category totals for the range given by the
// `from` and `to` query params; both default to the current month.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("authentication required"))
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	report, err := h.service.Summary(r.Context(), identity.UserID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, report, nil)
}
