package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cashclarity/ledgersync/internal/adapter/http/dto"
	"github.com/cashclarity/ledgersync/internal/domain"
)

// PeriodService defines the behavior needed by PeriodHandler.
type PeriodService interface {
	GetPeriodOverrides(ctx context.Context, periodID string) (domain.PeriodOverrides, error)
	UpsertPeriodOverrides(ctx context.Context, periodID string, overrides domain.PeriodOverrides) error
}

// PeriodHandler handles period override HTTP requests.
type PeriodHandler struct {
	periodUC PeriodService
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodUC PeriodService) *PeriodHandler {
	return &PeriodHandler{periodUC: periodUC}
}

// GetOverrides returns the override record of a period.
func (h *PeriodHandler) GetOverrides(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")

	overrides, err := h.periodUC.GetPeriodOverrides(r.Context(), periodID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodOverridesFromDomain(periodID, overrides))
}

// PutOverrides replaces the override record of a period.
func (h *PeriodHandler) PutOverrides(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")

	var req dto.PeriodOverridesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	overrides := req.ToDomain()
	if err := h.periodUC.UpsertPeriodOverrides(r.Context(), periodID, overrides); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodOverridesFromDomain(periodID, overrides))
}
