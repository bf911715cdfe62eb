package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashclarity/ledgersync/internal/adapter/http/dto"
	"github.com/cashclarity/ledgersync/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrEntryNotFound, http.StatusNotFound},
		{fmt.Errorf("delete e-1: %w", domain.ErrEntryNotFound), http.StatusNotFound},
		{domain.ErrPeriodMismatch, http.StatusConflict},
		{domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrInvalidPeriod, http.StatusBadRequest},
		{domain.ErrInvalidDirection, http.StatusBadRequest},
		{domain.ErrInvalidEntryID, http.StatusBadRequest},
		{domain.ErrInvalidField, http.StatusBadRequest},
		{domain.ErrInvalidAmountInput, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, mapDomainError(tt.err))
		})
	}
}

func TestWriteDomainError(t *testing.T) {
	t.Run("client error carries the reason", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeDomainError(rec, httptest.NewRequest(http.MethodPost, "/", nil), domain.ErrPeriodMismatch)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, http.StatusText(http.StatusConflict), resp.Error)
		assert.Equal(t, domain.ErrPeriodMismatch.Error(), resp.Message)
	})

	t.Run("internal error is not echoed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeDomainError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name       string
		payload    string
		wantOK     bool
		wantStatus int
	}{
		{name: "valid", payload: `{"name":"rent"}`, wantOK: true, wantStatus: http.StatusOK},
		{name: "malformed", payload: `{"name":`, wantStatus: http.StatusBadRequest},
		{name: "oversized", payload: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))

			var got body
			ok := decodeJSON(rec, req, &got)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if ok {
				assert.Equal(t, "rent", got.Name)
			}
		})
	}
}
