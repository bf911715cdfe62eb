package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one dependency the API needs before it can accept saves.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

func PostgresCheck(db Pinger) Check {
	return Check{Name: "postgres", Ping: db.Ping}
}

func RedisCheck(client *redis.Client) Check {
	return Check{Name: "redis", Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

type HealthHandler struct {
	checks []Check
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness never touches dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports 503 while any check fails. Every check runs so the body
// names all unhealthy dependencies at once.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	results := make(map[string]string, len(h.checks))

	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			results[c.Name] = err.Error()
			status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		results[c.Name] = "ok"
	}

	writeJSON(w, code, map[string]any{"status": status, "checks": results})
}
