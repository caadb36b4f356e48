package metric

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tlsrest"

var durationBuckets = []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	Pool   *PoolMetrics
	Server *ServerMetrics
	Audit  *AuditMetrics
}

// NewRegistry creates a registry with every tlsrest metric registered,
// plus the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Registry{
		registry: reg,
		Pool: &PoolMetrics{
			queueDepth: f.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "queue_depth",
				Help:      "Tasks waiting in the worker pool queue",
			}),
			busyWorkers: f.NewGauge(prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "busy_workers",
				Help:      "Workers currently executing a task",
			}),
			executed: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "tasks_executed_total",
				Help:      "Tasks executed by the worker pool",
			}),
			panics: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "task_panics_total",
				Help:      "Tasks that panicked and were recovered by a worker",
			}),
		},
		Server: &ServerMetrics{
			accepted: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "connections_accepted_total",
				Help:      "Connections returned by accept",
			}),
			handshakeFailures: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "tls_handshake_failures_total",
				Help:      "Connections discarded because the TLS handshake failed",
			}),
			handshakeDuration: f.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "tls_handshake_duration_seconds",
				Help:      "Time spent in the TLS handshake",
				Buckets:   durationBuckets,
			}),
			acceptRetries: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "accept_interrupted_total",
				Help:      "Accept calls interrupted by a signal and retried",
			}),
			requests: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "requests_total",
				Help:      "Requests answered, by verb and status code",
			}, []string{"verb", "status"}),
			requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "request_duration_seconds",
				Help:      "Time from first read to audit entry",
				Buckets:   durationBuckets,
			}, []string{"verb"}),
			disconnects: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "client_disconnects_total",
				Help:      "Connections closed by the peer before sending a request",
			}),
		},
		Audit: &AuditMetrics{
			rotations: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "rotations_total",
				Help:      "Audit log file rotations",
			}),
			bytesWritten: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "bytes_written_total",
				Help:      "Bytes appended to audit log files",
			}),
			dropped: f.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "entries_dropped_total",
				Help:      "Audit entries abandoned because no file could be opened",
			}),
		},
	}
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// PoolMetrics instruments the worker pool.
type PoolMetrics struct {
	queueDepth  prometheus.Gauge
	busyWorkers prometheus.Gauge
	executed    prometheus.Counter
	panics      prometheus.Counter
}

// SetQueueDepth records the number of queued tasks.
func (m *PoolMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// WorkerBusy marks one more worker as executing a task.
func (m *PoolMetrics) WorkerBusy() {
	if m == nil {
		return
	}
	m.busyWorkers.Inc()
}

// WorkerIdle reverses WorkerBusy and counts the finished task.
func (m *PoolMetrics) WorkerIdle() {
	if m == nil {
		return
	}
	m.busyWorkers.Dec()
	m.executed.Inc()
}

// TaskPanicked counts a recovered task panic.
func (m *PoolMetrics) TaskPanicked() {
	if m == nil {
		return
	}
	m.panics.Inc()
}

// ServerMetrics instruments the acceptor and request tasks.
type ServerMetrics struct {
	accepted          prometheus.Counter
	handshakeFailures prometheus.Counter
	handshakeDuration prometheus.Histogram
	acceptRetries     prometheus.Counter
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	disconnects       prometheus.Counter
}

// Accepted counts an accepted connection.
func (m *ServerMetrics) Accepted() {
	if m == nil {
		return
	}
	m.accepted.Inc()
}

// AcceptInterrupted counts an accept call retried after EINTR.
func (m *ServerMetrics) AcceptInterrupted() {
	if m == nil {
		return
	}
	m.acceptRetries.Inc()
}

// Handshake records the outcome and duration of a TLS handshake.
func (m *ServerMetrics) Handshake(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.handshakeDuration.Observe(d.Seconds())
	if err != nil {
		m.handshakeFailures.Inc()
	}
}

// Request records an answered request. The verb is client input, so it is
// folded into a fixed label set.
func (m *ServerMetrics) Request(verb string, status int, d time.Duration) {
	if m == nil {
		return
	}
	verb = VerbLabel(verb)
	m.requests.WithLabelValues(verb, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(verb).Observe(d.Seconds())
}

// VerbLabel maps a request verb to one of get, post, other or none.
func VerbLabel(verb string) string {
	switch strings.ToLower(verb) {
	case "":
		return "none"
	case "get":
		return "get"
	case "post":
		return "post"
	default:
		return "other"
	}
}

// Disconnected counts a peer that closed before sending anything.
func (m *ServerMetrics) Disconnected() {
	if m == nil {
		return
	}
	m.disconnects.Inc()
}

// AuditMetrics instruments the rotating audit log.
type AuditMetrics struct {
	rotations    prometheus.Counter
	bytesWritten prometheus.Counter
	dropped      prometheus.Counter
}

// Rotated counts a file rotation.
func (m *AuditMetrics) Rotated() {
	if m == nil {
		return
	}
	m.rotations.Inc()
}

// Written adds n to the bytes written counter.
func (m *AuditMetrics) Written(n int) {
	if m == nil {
		return
	}
	m.bytesWritten.Add(float64(n))
}

// Dropped counts an abandoned entry.
func (m *AuditMetrics) Dropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}
