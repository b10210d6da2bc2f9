// Package metrics provides Prometheus metrics collection for the application.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome/status label values for metrics.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"

	// PathModel and PathFallback label which pipeline produced a result.
	PathModel    = "ai"
	PathFallback = "fallback"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Authentication metrics
	AuthAttemptsTotal *prometheus.CounterVec
	SessionsCreated   prometheus.Counter
	SessionsExpired   prometheus.Counter

	// Quote estimation metrics
	QuoteEstimatesTotal   *prometheus.CounterVec
	QuoteEstimateDuration *prometheus.HistogramVec

	// Chat metrics
	ChatTurnsTotal   *prometheus.CounterVec
	ChatTurnDuration prometheus.Histogram

	// Lead metrics
	LeadsCapturedTotal   *prometheus.CounterVec
	LeadExtractionsTotal *prometheus.CounterVec

	// External service metrics
	ModelAPICallsTotal   *prometheus.CounterVec
	ModelAPICallDuration prometheus.Histogram
	CircuitBreakerState  *prometheus.GaugeVec
	CircuitBreakerTrips  prometheus.Counter

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBQueryDuration    *prometheus.HistogramVec
	DBQueryErrors      *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// ErrorRates tracks windowed error rates by category alongside the
	// cumulative Prometheus counters.
	ErrorRates *ErrorRateTracker

	// Registry used for this metrics instance (nil means default registry)
	registry prometheus.Gatherer
}

// NewMetrics creates a new Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	m := newMetricsWithRegistry(prometheus.DefaultRegisterer)
	m.registry = prometheus.DefaultGatherer
	return m
}

// NewMetricsWithRegistry creates metrics using a custom registry (for testing).
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	m := newMetricsWithRegistry(reg)
	m.registry = reg
	return m
}

func newMetricsWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		ErrorRates: NewErrorRateTracker(DefaultErrorRateConfig()),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		AuthAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_auth_attempts_total",
				Help: "Total number of authentication attempts by outcome",
			},
			[]string{"outcome"}, // "success", "failure", "rate_limited"
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_created_total",
				Help: "Total number of admin sessions created",
			},
		),
		SessionsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_expired_total",
				Help: "Total number of admin sessions expired",
			},
		),

		QuoteEstimatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_quote_estimates_total",
				Help: "Total number of quote estimates by path and outcome",
			},
			[]string{"path", "outcome"}, // path: "ai", "fallback"
		),
		QuoteEstimateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_quote_estimate_duration_seconds",
				Help:    "Time taken to produce a quote estimate",
				Buckets: []float64{.001, .01, .1, .5, 1, 2, 5, 10, 15, 30},
			},
			[]string{"path"},
		),

		ChatTurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_chat_turns_total",
				Help: "Total number of chat turns by reply path",
			},
			[]string{"path"}, // "ai", "fallback"
		),
		ChatTurnDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "portal_chat_turn_duration_seconds",
				Help:    "Time taken to answer a chat turn",
				Buckets: []float64{.01, .1, .5, 1, 2, 5, 10, 15, 30},
			},
		),

		LeadsCapturedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_leads_captured_total",
				Help: "Total number of leads created or updated by source",
			},
			[]string{"source"}, // "chatbot", "quote_form"
		),
		LeadExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_lead_extractions_total",
				Help: "Total number of lead extraction attempts by path and outcome",
			},
			[]string{"path", "outcome"}, // outcome: "hit", "empty"
		),

		ModelAPICallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_model_api_calls_total",
				Help: "Total number of model endpoint calls by status",
			},
			[]string{"status"}, // "success", "failure", "circuit_open", "budget_exceeded"
		),
		ModelAPICallDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "portal_model_api_call_duration_seconds",
				Help:    "Duration of model endpoint calls",
				Buckets: []float64{.5, 1, 2, 5, 10, 15, 30},
			},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portal_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_circuit_breaker_trips_total",
				Help: "Total number of times the circuit breaker has tripped",
			},
		),

		DBConnectionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_db_connections_open",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_db_connections_in_use",
				Help: "Number of database connections currently in use",
			},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_db_query_duration_seconds",
				Help:    "Duration of database queries",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"}, // "select", "insert", "update", "delete"
		),
		DBQueryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_db_query_errors_total",
				Help: "Total number of database query errors",
			},
			[]string{"operation"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_rate_limit_hits_total",
				Help: "Total number of rate limit hits by limiter",
			},
			[]string{"limiter"}, // "general", "login", "ai_budget"
		),
	}
}

// Handler returns the Prometheus HTTP handler for scraping metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware returns an HTTP middleware that records request metrics.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Normalize path for metrics (avoid high cardinality)
		path := normalizePath(r.URL.Path)

		m.HTTPRequestsTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(wrapped.statusCode),
		).Inc()

		m.HTTPRequestDuration.WithLabelValues(
			r.Method,
			path,
		).Observe(duration)

		m.ErrorRates.RecordRequest()
		switch {
		case wrapped.statusCode >= 500:
			m.ErrorRates.RecordError(ErrorCategoryHTTP)
		case wrapped.statusCode == http.StatusUnauthorized || wrapped.statusCode == http.StatusForbidden:
			m.ErrorRates.RecordError(ErrorCategoryAuth)
		case wrapped.statusCode == http.StatusTooManyRequests:
			m.ErrorRates.RecordError(ErrorCategoryRateLimit)
		case wrapped.statusCode >= 400:
			m.ErrorRates.RecordError(ErrorCategoryValidation)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

// normalizePath normalizes URL paths to prevent high cardinality labels.
func normalizePath(path string) string {
	switch path {
	case "/", "/health", "/ready", "/live", "/metrics",
		"/api/quote", "/api/chat", "/api/products", "/api/analytics":
		return path
	}

	if strings.HasPrefix(path, "/api/products/") {
		return "/api/products/:id"
	}
	if strings.HasPrefix(path, "/api/admin/leads/") {
		return "/api/admin/leads/:id"
	}
	if strings.HasPrefix(path, "/api/admin/quotes/") {
		return "/api/admin/quotes/:id"
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	return path
}

// Helper methods for recording specific events

// RecordAuthAttempt records an authentication attempt.
func (m *Metrics) RecordAuthAttempt(success bool) {
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	}
	m.AuthAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthRateLimited records a rate-limited auth attempt.
func (m *Metrics) RecordAuthRateLimited() {
	m.AuthAttemptsTotal.WithLabelValues("rate_limited").Inc()
}

// RecordSessionCreated records a new session creation.
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
}

// RecordSessionExpired records a session expiration.
func (m *Metrics) RecordSessionExpired() {
	m.SessionsExpired.Inc()
}

// RecordQuoteEstimate records a quote estimate by producing path.
func (m *Metrics) RecordQuoteEstimate(path string, success bool, duration time.Duration) {
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	}
	m.QuoteEstimatesTotal.WithLabelValues(path, outcome).Inc()
	m.QuoteEstimateDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// RecordChatTurn records an answered chat turn.
func (m *Metrics) RecordChatTurn(path string, duration time.Duration) {
	m.ChatTurnsTotal.WithLabelValues(path).Inc()
	m.ChatTurnDuration.Observe(duration.Seconds())
}

// RecordLeadCaptured records a lead create/update.
func (m *Metrics) RecordLeadCaptured(source string) {
	m.LeadsCapturedTotal.WithLabelValues(source).Inc()
}

// RecordLeadExtraction records a lead extraction attempt.
func (m *Metrics) RecordLeadExtraction(path string, empty bool) {
	outcome := "hit"
	if empty {
		outcome = "empty"
	}
	m.LeadExtractionsTotal.WithLabelValues(path, outcome).Inc()
}

// RecordModelAPICall records a model endpoint call.
func (m *Metrics) RecordModelAPICall(success bool, duration time.Duration) {
	status := outcomeFailure
	if success {
		status = outcomeSuccess
	}
	m.ModelAPICallsTotal.WithLabelValues(status).Inc()
	m.ModelAPICallDuration.Observe(duration.Seconds())
}

// RecordCircuitOpen records a circuit breaker opening.
func (m *Metrics) RecordCircuitOpen() {
	m.ModelAPICallsTotal.WithLabelValues("circuit_open").Inc()
	m.CircuitBreakerTrips.Inc()
}

// RecordBudgetExceeded records a model call rejected by the spend budget.
func (m *Metrics) RecordBudgetExceeded() {
	m.ModelAPICallsTotal.WithLabelValues("budget_exceeded").Inc()
	m.RateLimitHitsTotal.WithLabelValues("ai_budget").Inc()
}

// SetCircuitBreakerState sets the circuit breaker state for a service.
// State: 0=closed, 1=half-open, 2=open
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// UpdateDBConnections updates database connection metrics.
func (m *Metrics) UpdateDBConnections(open, inUse int) {
	m.DBConnectionsOpen.Set(float64(open))
	m.DBConnectionsInUse.Set(float64(inUse))
}
