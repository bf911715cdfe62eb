package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cashclarity/ledgersync/internal/adapter/http/handler"
	apimiddleware "github.com/cashclarity/ledgersync/internal/adapter/http/middleware"
	"github.com/cashclarity/ledgersync/internal/domain"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ledgersync_http_requests_in_flight") {
		t.Fatalf("expected HTTP metrics in exposition output")
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotentBatchIsReplayed(t *testing.T) {
	store := newMemoryIdempotencyStore()
	svc := &stubLedgerService{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
		cfg.EntryHandler = handler.NewEntryHandler(svc)
	}))

	send := func() *httptest.ResponseRecorder {
		body := `{"entries":[{"id":"e-1","workspace_id":"ws-1","direction":"expense","category_id":"rent","description":"Rent","amount":"1200"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/periods/2024-05/entries/batch", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	second := send()

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected both requests to succeed, got %d and %d", first.Code, second.Code)
	}
	if second.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected second request to be a replay")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected replayed body %q, got %q", first.Body.String(), second.Body.String())
	}
	if svc.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", svc.upserts)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /api/v1/periods/{periodID}/entries",
		"POST /api/v1/periods/{periodID}/entries/batch",
		"GET /api/v1/periods/{periodID}/overrides",
		"PUT /api/v1/periods/{periodID}/overrides",
		"DELETE /api/v1/entries/{id}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered, got %v", route, seen)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	svc := &stubLedgerService{}
	reg := prometheus.NewRegistry()

	cfg := RouterConfig{
		HealthHandler:  &handler.HealthHandler{},
		EntryHandler:   handler.NewEntryHandler(svc),
		PeriodHandler:  handler.NewPeriodHandler(svc),
		HTTPMetrics:    apimiddleware.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubLedgerService struct {
	upserts int
}

func (s *stubLedgerService) ListEntries(ctx context.Context, periodID string) ([]domain.EntryRecord, error) {
	return []domain.EntryRecord{}, nil
}

func (s *stubLedgerService) UpsertEntries(ctx context.Context, periodID string, records []domain.EntryRecord) error {
	s.upserts++
	return nil
}

func (s *stubLedgerService) DeleteEntry(ctx context.Context, id string) error {
	return nil
}

func (s *stubLedgerService) GetPeriodOverrides(ctx context.Context, periodID string) (domain.PeriodOverrides, error) {
	return domain.PeriodOverrides{}, nil
}

func (s *stubLedgerService) UpsertPeriodOverrides(ctx context.Context, periodID string, overrides domain.PeriodOverrides) error {
	return nil
}

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: map[string][]byte{}}
}

func (s *memoryIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.data[key]; ok {
		return true, v, nil
	}
	if response == nil {
		response = []byte("processing")
	}
	s.data[key] = response
	return false, nil, nil
}

func (s *memoryIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = response
	return nil
}

func (s *memoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
