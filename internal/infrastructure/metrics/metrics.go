package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Sheet metrics
	Saves            *prometheus.CounterVec
	SaveDuration     *prometheus.HistogramVec
	EntriesUpserted  prometheus.Counter
	EntriesDeleted   *prometheus.CounterVec
	DebounceFired    prometheus.Counter
	PendingEntries   prometheus.Gauge
	MutationsApplied *prometheus.CounterVec

	// Persistence API metrics
	APIRequests *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates all metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Sheet metrics
		Saves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_saves_total",
				Help: "Total save attempts by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		),
		SaveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgersync_save_duration_seconds",
				Help:    "Duration of save attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		EntriesUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_entries_upserted_total",
			Help: "Total entries sent in successful upsert batches",
		}),
		EntriesDeleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_entries_deleted_total",
				Help: "Total entry removals by kind",
			},
			[]string{"kind"},
		),
		DebounceFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgersync_debounce_fired_total",
			Help: "Total automatic saves fired by the debounce timer",
		}),
		PendingEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledgersync_pending_entries",
			Help: "Entries with changes not yet confirmed by the server",
		}),
		MutationsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_mutations_total",
				Help: "Total local mutations by operation",
			},
			[]string{"operation"},
		),

		// Persistence API metrics
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_api_operations_total",
				Help: "Total persistence operations by outcome",
			},
			[]string{"operation", "status"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgersync_api_operation_duration_seconds",
				Help:    "Persistence operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgersync_events_published_total",
				Help: "Total outbox events published by outcome",
			},
			[]string{"event_type", "status"},
		),
	}
}

// ObserveSave records one save attempt. Safe on a nil receiver.
func (m *Metrics) ObserveSave(trigger string, err error, entries int, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
	} else {
		m.EntriesUpserted.Add(float64(entries))
	}

	m.Saves.WithLabelValues(trigger, outcome).Inc()
	m.SaveDuration.WithLabelValues(trigger).Observe(elapsed.Seconds())
}

// ObserveDebounceFired counts a timer-triggered save. Safe on a nil receiver.
func (m *Metrics) ObserveDebounceFired() {
	if m == nil {
		return
	}
	m.DebounceFired.Inc()
}

// SetPendingEntries updates the pending gauge. Safe on a nil receiver.
func (m *Metrics) SetPendingEntries(n int) {
	if m == nil {
		return
	}
	m.PendingEntries.Set(float64(n))
}

// ObserveMutation counts a local mutation. Safe on a nil receiver.
func (m *Metrics) ObserveMutation(operation string) {
	if m == nil {
		return
	}
	m.MutationsApplied.WithLabelValues(operation).Inc()
}

// ObserveDelete counts an entry removal: "local" or "remote_success"/"remote_failure".
func (m *Metrics) ObserveDelete(kind string) {
	if m == nil {
		return
	}
	m.EntriesDeleted.WithLabelValues(kind).Inc()
}

// ObserveOperation records one persistence API operation. Safe on a nil receiver.
func (m *Metrics) ObserveOperation(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	m.APIRequests.WithLabelValues(operation, status).Inc()
	m.APIDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObservePublish records one outbox publication. Safe on a nil receiver.
func (m *Metrics) ObservePublish(eventType string, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	m.EventsPublished.WithLabelValues(eventType, status).Inc()
}
