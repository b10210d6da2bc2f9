package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/metrics"
)

// HealthChecker defines the interface for checking database health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// AIHealthChecker defines the interface for checking AI service health.
type AIHealthChecker interface {
	IsCircuitOpen() bool
}

// ReadinessChecker reports whether the service should accept traffic.
// It goes false once graceful shutdown begins.
type ReadinessChecker interface {
	IsReady() bool
}

// errorRateDegradedThreshold is the windowed error rate (errors per second)
// above which the health endpoint reports degradation.
const errorRateDegradedThreshold = 5.0

// HealthHandler handles health check HTTP requests.
type HealthHandler struct {
	healthChecker   HealthChecker
	aiHealthChecker AIHealthChecker
	errorRates      *metrics.ErrorRateTracker
	readiness       ReadinessChecker
	logger          *zap.Logger
}

// HealthHandlerConfig holds configuration for HealthHandler.
type HealthHandlerConfig struct {
	HealthChecker   HealthChecker
	AIHealthChecker AIHealthChecker
	ErrorRates      *metrics.ErrorRateTracker
	Readiness       ReadinessChecker
	Logger          *zap.Logger
}

// NewHealthHandler creates a new HealthHandler with all required dependencies.
func NewHealthHandler(cfg HealthHandlerConfig) *HealthHandler {
	if cfg.Logger == nil {
		panic("logger is required")
	}
	return &HealthHandler{
		healthChecker:   cfg.HealthChecker,
		aiHealthChecker: cfg.AIHealthChecker,
		errorRates:      cfg.ErrorRates,
		readiness:       cfg.Readiness,
		logger:          cfg.Logger,
	}
}

// RegisterRoutes registers health routes on the router.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReadiness)
	r.Get("/live", h.HandleLiveness)
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string                     `json:"status"`
	Version string                     `json:"version,omitempty"`
	Checks  map[string]ComponentHealth `json:"checks,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HandleHealth returns a health check response including all service dependencies.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
		Checks:  make(map[string]ComponentHealth),
	}

	hasCriticalFailure := false
	hasDegradation := false

	// Check database connectivity (critical)
	if h.healthChecker != nil {
		if err := h.healthChecker.Ping(ctx); err != nil {
			hasCriticalFailure = true
			response.Checks["database"] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			h.logger.Error("database health check failed", zap.Error(err))
		} else {
			response.Checks["database"] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	// Check AI service health via circuit breaker. The estimate and chat
	// pipelines keep serving from the deterministic path while this is
	// degraded.
	if h.aiHealthChecker != nil {
		if h.aiHealthChecker.IsCircuitOpen() {
			hasDegradation = true
			response.Checks["ai_service"] = ComponentHealth{
				Status:  "degraded",
				Message: "circuit breaker open - service temporarily unavailable",
			}
			h.logger.Warn("AI service circuit breaker is open")
		} else {
			response.Checks["ai_service"] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	// Report the windowed error rate. A burst of failures shows up here
	// before the cumulative Prometheus counters make it obvious.
	if h.errorRates != nil {
		rate := h.errorRates.TotalRate()
		check := ComponentHealth{Status: "healthy"}
		if rate > errorRateDegradedThreshold {
			hasDegradation = true
			check.Status = "degraded"
			check.Message = fmt.Sprintf("%.1f errors/sec over the last window", rate)
			for _, snap := range h.errorRates.Snapshot() {
				h.logger.Warn("elevated error rate",
					zap.String("category", string(snap.Category)),
					zap.Int64("count", snap.Count),
					zap.Float64("rate", snap.Rate),
				)
			}
		}
		response.Checks["error_rate"] = check
	}

	// Determine overall status
	if hasCriticalFailure {
		response.Status = "unhealthy"
	} else if hasDegradation {
		response.Status = "degraded"
	}

	// Add request ID header
	if reqID := GetRequestIDFromContext(r.Context()); reqID != "" {
		w.Header().Set("X-Request-ID", reqID)
	}

	w.Header().Set("Content-Type", "application/json")

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	w.WriteHeader(statusCode)

	if err := encodeJSON(w, response); err != nil {
		h.logger.Debug("failed to write health response", zap.Error(err))
	}
}

// HandleReadiness returns a simple readiness probe response.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	// Draining instances stop taking traffic before connections close.
	if h.readiness != nil && !h.readiness.IsReady() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}

	// Only check database - the critical dependency
	if h.healthChecker != nil {
		if err := h.healthChecker.Ping(ctx); err != nil {
			h.logger.Error("readiness check failed", zap.Error(err))
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// HandleLiveness returns a simple liveness probe response.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
