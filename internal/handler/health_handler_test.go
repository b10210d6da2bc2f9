package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/metrics"
)

type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) Ping(ctx context.Context) error {
	return f.err
}

type fakeAIChecker struct {
	open bool
}

func (f *fakeAIChecker) IsCircuitOpen() bool {
	return f.open
}

func TestHealthHandler_Healthy(t *testing.T) {
	handler := NewHealthHandler(HealthHandlerConfig{
		HealthChecker:   &fakeHealthChecker{},
		AIHealthChecker: &fakeAIChecker{},
		Logger:          zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Checks["database"].Status != "healthy" {
		t.Errorf("database check = %q, expected healthy", resp.Checks["database"].Status)
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	handler := NewHealthHandler(HealthHandlerConfig{
		HealthChecker: &fakeHealthChecker{err: errors.New("connection refused")},
		Logger:        zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestHealthHandler_AICircuitOpen_Degraded(t *testing.T) {
	handler := NewHealthHandler(HealthHandlerConfig{
		HealthChecker:   &fakeHealthChecker{},
		AIHealthChecker: &fakeAIChecker{open: true},
		Logger:          zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	// Degraded AI still serves traffic via the deterministic path.
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("expected status degraded, got %q", resp.Status)
	}
}

func TestHealthHandler_ElevatedErrorRate_Degraded(t *testing.T) {
	tracker := metrics.NewErrorRateTracker(metrics.ErrorRateConfig{
		WindowDuration: time.Second,
		BucketCount:    10,
	})
	// 6 errors over a 1 second window exceeds the 5/sec threshold.
	for i := 0; i < 6; i++ {
		tracker.RecordError(metrics.ErrorCategoryDatabase)
	}

	handler := NewHealthHandler(HealthHandlerConfig{
		HealthChecker: &fakeHealthChecker{},
		ErrorRates:    tracker,
		Logger:        zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("expected status degraded, got %q", resp.Status)
	}
	if resp.Checks["error_rate"].Status != "degraded" {
		t.Errorf("error_rate check = %q, expected degraded", resp.Checks["error_rate"].Status)
	}
}

func TestHealthHandler_QuietErrorRate_Healthy(t *testing.T) {
	tracker := metrics.NewErrorRateTracker(metrics.DefaultErrorRateConfig())
	tracker.RecordError(metrics.ErrorCategoryExternal)

	handler := NewHealthHandler(HealthHandlerConfig{
		HealthChecker: &fakeHealthChecker{},
		ErrorRates:    tracker,
		Logger:        zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()

	handler.HandleHealth(rr, req)

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if resp.Checks["error_rate"].Status != "healthy" {
		t.Errorf("error_rate check = %q, expected healthy", resp.Checks["error_rate"].Status)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	handler := NewHealthHandler(HealthHandlerConfig{Logger: zap.NewNop()})

	rr := httptest.NewRecorder()
	handler.HandleLiveness(rr, httptest.NewRequest(http.MethodGet, "/live", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

type fakeReadiness struct {
	ready bool
}

func (f *fakeReadiness) IsReady() bool { return f.ready }

func TestHealthHandler_Readiness_Draining(t *testing.T) {
	handler := NewHealthHandler(HealthHandlerConfig{
		HealthChecker: &fakeHealthChecker{},
		Readiness:     &fakeReadiness{ready: false},
		Logger:        zap.NewNop(),
	})

	rr := httptest.NewRecorder()
	handler.HandleReadiness(rr, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d while draining, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestHealthHandler_Readiness_DatabaseDown(t *testing.T) {
	handler := NewHealthHandler(HealthHandlerConfig{
		HealthChecker: &fakeHealthChecker{err: errors.New("connection refused")},
		Logger:        zap.NewNop(),
	})

	rr := httptest.NewRecorder()
	handler.HandleReadiness(rr, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}
