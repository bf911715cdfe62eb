package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsLabelsByRoute(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		route  string
	}{
		{name: "period entries", method: http.MethodGet, path: "/api/v1/periods/2024-05/entries", status: http.StatusOK, route: "/api/v1/periods/{periodID}/entries"},
		{name: "entry delete", method: http.MethodDelete, path: "/api/v1/entries/01HZX", status: http.StatusNoContent, route: "/api/v1/entries/{id}"},
		{name: "unknown path", method: http.MethodGet, path: "/nope/123", status: http.StatusNotFound, route: unmatchedRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewHTTPMetrics(prometheus.NewRegistry())

			reply := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(tt.status) }
			r := chi.NewRouter()
			r.Use(m.Wrap)
			r.Get("/api/v1/periods/{periodID}/entries", reply)
			r.Delete("/api/v1/entries/{id}", reply)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			require.Equal(t, tt.status, rec.Code)
			assert.Zero(t, testutil.ToFloat64(m.inFlight))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(tt.method, tt.route, strconv.Itoa(tt.status))))
			assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
		})
	}
}

func TestRoutePatternOutsideChi(t *testing.T) {
	assert.Equal(t, unmatchedRoute, routePattern(httptest.NewRequest(http.MethodGet, "/health", nil)))
}
