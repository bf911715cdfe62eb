package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cashclarity/ledgersync/internal/adapter/http/dto"
	"github.com/cashclarity/ledgersync/internal/domain"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	ListEntries(ctx context.Context, periodID string) ([]domain.EntryRecord, error)
	UpsertEntries(ctx context.Context, periodID string, records []domain.EntryRecord) error
	DeleteEntry(ctx context.Context, id string) error
}

// EntryHandler handles ledger entry HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// List returns all entries of a period.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")

	records, err := h.entryUC.ListEntries(r.Context(), periodID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(periodID, records))
}

// BatchUpsert creates or updates entries of a period in one transaction.
func (h *EntryHandler) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	periodID := chi.URLParam(r, "periodID")

	var req dto.BatchUpsertEntriesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.entryUC.UpsertEntries(r.Context(), periodID, req.ToRecords(periodID)); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchUpsertEntriesResponse{PeriodID: periodID, Saved: len(req.Entries)})
}

// Delete removes an entry.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.entryUC.DeleteEntry(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
