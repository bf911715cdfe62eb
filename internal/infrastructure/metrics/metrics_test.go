package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.Saves == nil || m.APIRequests == nil || m.DebounceFired == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.ObserveSave("auto", nil, 1, time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestObserveSaveCountsOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSave("auto", nil, 3, 10*time.Millisecond)
	m.ObserveSave("explicit", errors.New("boom"), 2, 10*time.Millisecond)

	if got := testutil.ToFloat64(m.Saves.WithLabelValues("auto", "success")); got != 1 {
		t.Fatalf("expected 1 successful auto save, got %v", got)
	}
	if got := testutil.ToFloat64(m.Saves.WithLabelValues("explicit", "failure")); got != 1 {
		t.Fatalf("expected 1 failed explicit save, got %v", got)
	}
	if got := testutil.ToFloat64(m.EntriesUpserted); got != 3 {
		t.Fatalf("expected failed saves not to count upserted entries, got %v", got)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	m.ObserveSave("auto", nil, 1, time.Second)
	m.ObserveDebounceFired()
	m.SetPendingEntries(4)
	m.ObserveMutation("add")
	m.ObserveDelete("local")
	m.ObserveOperation("upsert_entries", nil, time.Second)
	m.ObservePublish("period.entry_deleted", nil)
}
