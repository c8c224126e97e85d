// Package metrics exposes Prometheus collectors for dialogue turns,
// adapter calls and Telegram updates.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/services"
)

const namespace = "dialogbot"

// Metrics owns a private registry so tests can build many instances.
type Metrics struct {
	reg *prometheus.Registry

	turns       *prometheus.CounterVec
	turnSeconds *prometheus.HistogramVec
	calls       *prometheus.CounterVec
	callSeconds *prometheus.HistogramVec
	updates     *prometheus.CounterVec
	sent        prometheus.Counter
}

var (
	_ dialogue.Observer     = (*Metrics)(nil)
	_ services.CallObserver = (*Metrics)(nil)
)

// New registers all collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Dialogue turns by flow and outcome.",
		}, []string{"flow", "outcome"}),
		turnSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dialogue",
			Name:      "turn_seconds",
			Help:      "Dialogue turn latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "calls_total",
			Help:      "External adapter calls by service and result.",
		}, []string{"service", "result"}),
		callSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "call_seconds",
			Help:      "External adapter call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"service"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "updates_total",
			Help:      "Handled Telegram updates by handler and status.",
		}, []string{"handler", "status"}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram",
			Name:      "messages_sent_total",
			Help:      "Messages sent in reply to updates.",
		}),
	}
	m.reg.MustRegister(
		m.turns, m.turnSeconds,
		m.calls, m.callSeconds,
		m.updates, m.sent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is the gatherer served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveTurn implements dialogue.Observer.
func (m *Metrics) ObserveTurn(flow string, outcome dialogue.Outcome, took time.Duration) {
	m.turns.WithLabelValues(flow, string(outcome)).Inc()
	m.turnSeconds.WithLabelValues(flow).Observe(took.Seconds())
}

// ObserveCall implements services.CallObserver. The result label is "ok"
// or the error kind.
func (m *Metrics) ObserveCall(service string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = string(services.KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	m.calls.WithLabelValues(service, result).Inc()
	m.callSeconds.WithLabelValues(service).Observe(took.Seconds())
}

// ObserveUpdate counts one handled update and the replies it produced.
func (m *Metrics) ObserveUpdate(handler, status string, messages int) {
	if handler == "" {
		handler = "unknown"
	}
	m.updates.WithLabelValues(handler, status).Inc()
	if messages > 0 {
		m.sent.Add(float64(messages))
	}
}
