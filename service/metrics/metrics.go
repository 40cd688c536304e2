package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC metrics
	rpcCallsTotal       *prometheus.CounterVec
	rpcCallDuration     *prometheus.HistogramVec
	rpcRateLimitHits    *prometheus.CounterVec
	rpcRetries          *prometheus.CounterVec
	transactionsSkipped *prometheus.CounterVec

	// Analysis pipeline metrics
	analysesTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	detectionsTotal  *prometheus.CounterVec

	// Registry metrics
	registryLookupsTotal   *prometheus.CounterVec
	registryLookupDuration *prometheus.HistogramVec
	registryReportsTotal   *prometheus.CounterVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS metrics
	natsMessagesPublished *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		rpcRateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_rate_limit_hits_total",
				Help: "Total number of Solana RPC rate limit hits (429 errors)",
			},
			[]string{"endpoint"},
		),
		rpcRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_retries_total",
				Help: "Total number of Solana RPC retry attempts",
			},
			[]string{"method", "reason"},
		),
		transactionsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_skipped_total",
				Help: "Total number of transactions skipped during history fetch",
			},
			[]string{"wallet_address", "reason"},
		),
		analysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_analyses_total",
				Help: "Total number of wallet analyses by resulting severity",
			},
			[]string{"severity"},
		),
		analysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_analysis_duration_seconds",
				Help:    "End-to-end duration of wallet analyses in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"severity"},
		),
		detectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detections_total",
				Help: "Total number of attack detections by type and severity",
			},
			[]string{"type", "severity"},
		),
		registryLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_lookups_total",
				Help: "Total number of drainer registry lookups by status",
			},
			[]string{"status"},
		),
		registryLookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "registry_lookup_duration_seconds",
				Help:    "Duration of drainer registry account lookups in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"status"},
		),
		registryReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_reports_total",
				Help: "Total number of drainer report submissions by status",
			},
			[]string{"status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"handler", "method"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by handler, method and status",
			},
			[]string{"handler", "method", "status"},
		),
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published by subject and status",
			},
			[]string{"subject", "status"},
		),
	}
}

// RecordRPCCall records a Solana RPC call with its duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, durationSeconds float64) {
	m.rpcCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.rpcCallDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordRateLimitHit records a 429 response from the RPC endpoint.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.rpcRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordRPCRetry records a retry attempt and its reason.
func (m *Metrics) RecordRPCRetry(method, reason string) {
	m.rpcRetries.WithLabelValues(method, reason).Inc()
}

// RecordTransactionSkipped records a transaction dropped from an analysis.
func (m *Metrics) RecordTransactionSkipped(walletAddress, reason string) {
	m.transactionsSkipped.WithLabelValues(walletAddress, reason).Inc()
}

// RecordAnalysis records a completed wallet analysis.
func (m *Metrics) RecordAnalysis(severity string, durationSeconds float64) {
	m.analysesTotal.WithLabelValues(severity).Inc()
	m.analysisDuration.WithLabelValues(severity).Observe(durationSeconds)
}

// RecordDetection records one attack detection.
func (m *Metrics) RecordDetection(detectionType, severity string) {
	m.detectionsTotal.WithLabelValues(detectionType, severity).Inc()
}

// RecordRegistryLookup records a drainer registry account lookup.
func (m *Metrics) RecordRegistryLookup(status string, durationSeconds float64) {
	m.registryLookupsTotal.WithLabelValues(status).Inc()
	m.registryLookupDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordRegistryReport records a drainer report submission.
func (m *Metrics) RecordRegistryReport(status string) {
	m.registryReportsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, durationSeconds float64) {
	m.httpRequestsTotal.WithLabelValues(handler, method, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(handler, method).Observe(durationSeconds)
}

// RecordNATSPublish records a NATS publish attempt.
func (m *Metrics) RecordNATSPublish(subject, status string) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
}
