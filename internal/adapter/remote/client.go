// Package remote talks to the ledger persistence API on behalf of an
// editing session.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cashclarity/ledgersync/internal/adapter/http/dto"
	"github.com/cashclarity/ledgersync/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	maxErrorBody         = 4 << 10
)

// APIError is a non-2xx response from the persistence API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client implements usecase.EntryGateway and usecase.PeriodOverrideGateway
// over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Client.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host required", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// UpsertEntries sends all records of a period in one batch request.
func (c *Client) UpsertEntries(ctx context.Context, periodID string, records []domain.EntryRecord) error {
	body := dto.BatchUpsertEntriesRequestFromRecords(records)
	path := "/api/v1/periods/" + url.PathEscape(periodID) + "/entries/batch"

	return c.do(ctx, http.MethodPost, path, body, nil)
}

// DeleteEntry removes an entry. A missing entry yields domain.ErrEntryNotFound.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/v1/entries/"+url.PathEscape(id), nil, nil)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}

	return err
}

// UpsertPeriodOverrides replaces the override record of a period.
func (c *Client) UpsertPeriodOverrides(ctx context.Context, periodID string, overrides domain.PeriodOverrides) error {
	body := dto.PeriodOverridesRequest{
		OpeningBalanceOverride: overrides.OpeningBalanceOverride,
		DividendsReleased:      overrides.DividendsReleased,
		ClosingBalanceOverride: overrides.ClosingBalanceOverride,
	}

	return c.do(ctx, http.MethodPut, "/api/v1/periods/"+url.PathEscape(periodID)+"/overrides", body, nil)
}

// ListEntries loads the persisted entries of a period.
func (c *Client) ListEntries(ctx context.Context, periodID string) ([]domain.EntryRecord, error) {
	var resp dto.ListEntriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/periods/"+url.PathEscape(periodID)+"/entries", nil, &resp); err != nil {
		return nil, err
	}

	records := make([]domain.EntryRecord, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		rec, err := e.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", e.ID, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// GetPeriodOverrides loads the override record of a period.
func (c *Client) GetPeriodOverrides(ctx context.Context, periodID string) (domain.PeriodOverrides, error) {
	var resp dto.PeriodOverridesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/periods/"+url.PathEscape(periodID)+"/overrides", nil, &resp); err != nil {
		return domain.PeriodOverrides{}, err
	}

	return resp.ToDomain()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// Requests are never retried here; the key only dedupes transport replays.
	if method != http.MethodGet {
		req.Header.Set(idempotencyKeyHeader, uuid.NewString())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}

	var body dto.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	} else if len(raw) > 0 {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return apiErr
}
