package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/modide/internal/vfs"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Navigator metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TransferEntries   *prometheus.CounterVec
	TransferBytes     *prometheus.CounterVec
	SessionsActive    prometheus.Gauge

	// Remote storage metrics
	RemoteCalls    *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	Operations      int64   `json:"operations"`
	FailedOps       int64   `json:"failed_operations"`
	ActiveSessions  int64   `json:"active_sessions"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	AvgRequestMilli float64 `json:"avg_request_ms"`

	totalDuration float64
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modide_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "modide_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "modide_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "modide_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modide_operations_total",
				Help: "Navigator operations by outcome",
			},
			[]string{"op", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "modide_operation_duration_seconds",
				Help:    "Navigator operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),
		TransferEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modide_transfer_entries_total",
				Help: "Entries handled by copy, upload and export",
			},
			[]string{"op", "result"},
		),
		TransferBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modide_transfer_bytes_total",
				Help: "File bytes handled by copy, upload and export",
			},
			[]string{"op"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "modide_sessions_active",
				Help: "Number of open navigator sessions",
			},
		),

		RemoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modide_remote_calls_total",
				Help: "Calls to the remote file server",
			},
			[]string{"method", "status"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "modide_remote_duration_seconds",
				Help:    "Remote file server call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "modide_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "modide_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "modide_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordOperation records one navigator operation; the status is the error code or "ok"
func (m *Metrics) RecordOperation(op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = string(vfs.Classify(err))
	}
	m.OperationsTotal.WithLabelValues(op, status).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(d.Seconds())

	m.mu.Lock()
	m.snapshot.Operations++
	if err != nil {
		m.snapshot.FailedOps++
	}
	m.mu.Unlock()
}

// RecordTransfer records the outcome of a copy, upload or export
func (m *Metrics) RecordTransfer(op string, files, dirs, failures int, bytes int64) {
	m.TransferEntries.WithLabelValues(op, "file").Add(float64(files))
	m.TransferEntries.WithLabelValues(op, "directory").Add(float64(dirs))
	m.TransferEntries.WithLabelValues(op, "failed").Add(float64(failures))
	m.TransferBytes.WithLabelValues(op).Add(float64(bytes))
}

// RecordRemoteCall records a call to the remote file server
func (m *Metrics) RecordRemoteCall(method, status string, duration time.Duration) {
	m.RemoteCalls.WithLabelValues(method, status).Inc()
	m.RemoteDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetSessionsActive sets the number of open sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
