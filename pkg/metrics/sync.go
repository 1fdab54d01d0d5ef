package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records poll/broadcast activity for the sync engine and
// settlement outcomes for the payment processor.
type SyncMetrics struct {
	pollDuration *prometheus.HistogramVec
	pollFailure  *prometheus.CounterVec
	pollSkipped  *prometheus.CounterVec
	broadcasts   *prometheus.CounterVec
	settlements  *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	pollDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_poll_duration_seconds",
		Help:    "Duration of sync poll fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	pollFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_poll_failures",
		Help: "Failed sync fetches.",
	}, []string{"channel"})
	pollSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_poll_skipped",
		Help: "Poll ticks skipped because the previous fetch was still in flight.",
	}, []string{"channel"})
	broadcasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_broadcasts",
		Help: "Events delivered to sync listeners.",
	}, []string{"kind"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_settlements",
		Help: "Payment settlement outcomes.",
	}, []string{"outcome"})
	reg.MustRegister(pollDuration, pollFailure, pollSkipped, broadcasts, settlements)
	return &SyncMetrics{
		pollDuration: pollDuration,
		pollFailure:  pollFailure,
		pollSkipped:  pollSkipped,
		broadcasts:   broadcasts,
		settlements:  settlements,
	}
}

// ObservePoll records the duration of a fetch on the named channel.
func (m *SyncMetrics) ObservePoll(channel string, duration time.Duration) {
	if m == nil || m.pollDuration == nil {
		return
	}
	m.pollDuration.WithLabelValues(normalizeLabel(channel)).Observe(duration.Seconds())
}

// IncPollFailure counts a failed fetch.
func (m *SyncMetrics) IncPollFailure(channel string) {
	if m == nil || m.pollFailure == nil {
		return
	}
	m.pollFailure.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncPollSkipped counts a tick skipped due to an in-flight fetch.
func (m *SyncMetrics) IncPollSkipped(channel string) {
	if m == nil || m.pollSkipped == nil {
		return
	}
	m.pollSkipped.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncBroadcast counts an event delivered to listeners.
func (m *SyncMetrics) IncBroadcast(kind string) {
	if m == nil || m.broadcasts == nil {
		return
	}
	m.broadcasts.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncSettlement counts a settlement outcome ("completed" or "failed").
func (m *SyncMetrics) IncSettlement(outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
