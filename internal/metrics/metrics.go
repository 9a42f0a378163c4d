// Package metrics provides Prometheus collectors for the router, adapters
// and streaming sessions. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voicerouter"

// Outcome labels for request metrics.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnsupported = "unsupported"
)

// Metrics holds all collectors.
type Metrics struct {
	Requests           *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	SessionsActive     *prometheus.GaugeVec
	SessionTransitions *prometheus.CounterVec
	AudioBytes         *prometheus.CounterVec
	SessionEvents      *prometheus.CounterVec
	PublishErrors      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of routed provider operations",
		}, []string{"provider", "operation", "outcome"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of routed provider operations",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider", "operation"}),
		SessionsActive: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of streaming sessions not yet in a terminal state",
		}, []string{"provider"}),
		SessionTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Streaming session state transitions",
		}, []string{"provider", "to"}),
		AudioBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Audio bytes forwarded to providers",
		}, []string{"provider"}),
		SessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Normalized streaming events delivered to callers",
		}, []string{"provider", "type"}),
		PublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Transcript events that could not be published",
		}, []string{"topic"}),
	}
}

// RecordRequest records one routed operation.
func (m *Metrics) RecordRequest(provider, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(provider, operation, outcome).Inc()
	m.RequestDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// RecordSessionStart records a new streaming session.
func (m *Metrics) RecordSessionStart(provider string) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues(provider).Inc()
}

// RecordSessionEnd records a session reaching a terminal state.
func (m *Metrics) RecordSessionEnd(provider string) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues(provider).Dec()
}

// RecordTransition records a session state change.
func (m *Metrics) RecordTransition(provider, to string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(provider, to).Inc()
}

// RecordAudio records audio bytes written to a provider transport.
func (m *Metrics) RecordAudio(provider string, n int) {
	if m == nil {
		return
	}
	m.AudioBytes.WithLabelValues(provider).Add(float64(n))
}

// RecordEvent records one delivered event.
func (m *Metrics) RecordEvent(provider, eventType string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(provider, eventType).Inc()
}

// RecordPublishError records a failed event publish.
func (m *Metrics) RecordPublishError(topic string) {
	if m == nil {
		return
	}
	m.PublishErrors.WithLabelValues(topic).Inc()
}
