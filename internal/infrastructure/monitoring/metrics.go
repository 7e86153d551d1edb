package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so managers can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Command metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec

	// Terminal metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsExited  prometheus.Counter
	TerminalBytes   prometheus.Counter

	// Supervisor metrics
	ProcessStarts  *prometheus.CounterVec
	ProcessRunning prometheus.Gauge

	// Watch metrics
	WatchEvents  *prometheus.CounterVec
	WatchedDirs  prometheus.Gauge
	DebounceKeys prometheus.Gauge

	// Event bus metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    prometheus.Counter
}

// NewMetrics registers all collectors on reg. A nil reg gets a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	startTime := time.Now()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "writer_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "writer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writer_tool_calls_total",
				Help: "Total number of command invocations",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "writer_tool_duration_seconds",
				Help:    "Command duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10, 15},
			},
			[]string{"tool"},
		),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "writer_terminal_sessions_active",
			Help: "Number of registered terminal sessions",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "writer_terminal_sessions_created_total",
			Help: "Total number of terminal sessions created",
		}),
		SessionsExited: factory.NewCounter(prometheus.CounterOpts{
			Name: "writer_terminal_sessions_exited_total",
			Help: "Total number of terminal sessions whose output stream ended",
		}),
		TerminalBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "writer_terminal_output_bytes_total",
			Help: "Total bytes read from terminal sessions",
		}),

		ProcessStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writer_process_starts_total",
				Help: "Supervised process start attempts by outcome",
			},
			[]string{"outcome"},
		),
		ProcessRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "writer_process_running",
			Help: "1 when a supervised process is tracked",
		}),

		WatchEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writer_watch_events_total",
				Help: "Filesystem events by result",
			},
			[]string{"result"},
		),
		WatchedDirs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "writer_watch_directories",
			Help: "Directories registered with the active watch",
		}),
		DebounceKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "writer_watch_debounce_keys",
			Help: "Entries in the watch debounce cache",
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writer_events_published_total",
				Help: "Events published on the bus",
			},
			[]string{"type"},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "writer_events_dropped_total",
				Help: "Event deliveries dropped because a subscriber was full",
			},
			[]string{"type"},
		),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "writer_ws_connections",
			Help: "Active WebSocket connections",
		}),
		WSMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "writer_ws_messages_sent_total",
			Help: "Messages written to WebSocket clients",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordToolCall records one command invocation.
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// SessionCreated counts a new terminal session.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
}

// SessionRemoved decrements the active session gauge.
func (m *Metrics) SessionRemoved() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// SessionExited counts a terminal whose output stream ended.
func (m *Metrics) SessionExited() {
	if m == nil {
		return
	}
	m.SessionsExited.Inc()
}

// AddTerminalBytes counts bytes read from a PTY.
func (m *Metrics) AddTerminalBytes(n int) {
	if m == nil {
		return
	}
	m.TerminalBytes.Add(float64(n))
}

// RecordProcessStart records a supervisor start outcome.
func (m *Metrics) RecordProcessStart(outcome string) {
	if m == nil {
		return
	}
	m.ProcessStarts.WithLabelValues(outcome).Inc()
}

// SetProcessRunning sets the tracked-process gauge.
func (m *Metrics) SetProcessRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.ProcessRunning.Set(1)
		return
	}
	m.ProcessRunning.Set(0)
}

// RecordWatchEvent counts a filesystem event by result.
func (m *Metrics) RecordWatchEvent(result string) {
	if m == nil {
		return
	}
	m.WatchEvents.WithLabelValues(result).Inc()
}

// SetWatchedDirs sets the number of watched directories.
func (m *Metrics) SetWatchedDirs(n int) {
	if m == nil {
		return
	}
	m.WatchedDirs.Set(float64(n))
}

// SetDebounceKeys sets the debounce cache size.
func (m *Metrics) SetDebounceKeys(n int) {
	if m == nil {
		return
	}
	m.DebounceKeys.Set(float64(n))
}

// RecordEvent counts a bus publish and the deliveries it dropped.
func (m *Metrics) RecordEvent(eventType string, dropped int) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
	if dropped > 0 {
		m.EventsDropped.WithLabelValues(eventType).Add(float64(dropped))
	}
}

// IncWSConnections increments WebSocket connections.
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections.
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// IncWSMessages counts a message sent to a WebSocket client.
func (m *Metrics) IncWSMessages() {
	if m == nil {
		return
	}
	m.WSMessages.Inc()
}
