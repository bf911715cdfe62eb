package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func probeReady(t *testing.T, h *HealthHandler) (int, readiness) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthHandler_Readiness(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	healthy := pingerFunc(func(context.Context) error { return nil })
	broken := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	code, body := probeReady(t, NewHealthHandler(PostgresCheck(healthy), RedisCheck(client)))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Checks)

	code, body = probeReady(t, NewHealthHandler(PostgresCheck(broken), RedisCheck(client)))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "connection refused", body.Checks["postgres"])
	assert.Equal(t, "ok", body.Checks["redis"])

	mr.Close()
	code, body = probeReady(t, NewHealthHandler(PostgresCheck(healthy), RedisCheck(client)))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body.Status)
	assert.NotEqual(t, "ok", body.Checks["redis"])
}

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
