package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/quote", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, expected 201", rec.Code)
	}

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/quote", "201"))
	if count != 1 {
		t.Errorf("HTTPRequestsTotal = %v, expected 1", count)
	}
}

func TestMetrics_Middleware_ErrorRates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/quote":
			w.WriteHeader(http.StatusBadRequest)
		case "/api/admin/leads":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	for _, path := range []string{"/api/quote", "/api/admin/leads", "/api/chat"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := m.ErrorRates.Count(ErrorCategoryValidation); got != 1 {
		t.Errorf("validation errors = %d, expected 1", got)
	}
	if got := m.ErrorRates.Count(ErrorCategoryAuth); got != 1 {
		t.Errorf("auth errors = %d, expected 1", got)
	}
	if got := m.ErrorRates.Count(ErrorCategoryHTTP); got != 1 {
		t.Errorf("http errors = %d, expected 1", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/quote", "/api/quote"},
		{"/api/chat", "/api/chat"},
		{"/api/products", "/api/products"},
		{"/api/products/3f2a", "/api/products/:id"},
		{"/api/admin/leads/9c1d", "/api/admin/leads/:id"},
		{"/api/admin/quotes/77aa", "/api/admin/quotes/:id"},
		{"/static/css/site.css", "/static/*"},
		{"/health", "/health"},
		{"/unknown", "/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, expected %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestRecordQuoteEstimate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordQuoteEstimate(PathFallback, true, 5*time.Millisecond)
	m.RecordQuoteEstimate(PathModel, false, time.Second)

	if got := testutil.ToFloat64(m.QuoteEstimatesTotal.WithLabelValues(PathFallback, "success")); got != 1 {
		t.Errorf("fallback success count = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.QuoteEstimatesTotal.WithLabelValues(PathModel, "failure")); got != 1 {
		t.Errorf("ai failure count = %v, expected 1", got)
	}
}

func TestRecordChatTurnAndLead(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordChatTurn(PathModel, 100*time.Millisecond)
	m.RecordLeadCaptured("chatbot")
	m.RecordLeadExtraction(PathFallback, false)
	m.RecordLeadExtraction(PathFallback, true)

	if got := testutil.ToFloat64(m.ChatTurnsTotal.WithLabelValues(PathModel)); got != 1 {
		t.Errorf("chat turns = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.LeadsCapturedTotal.WithLabelValues("chatbot")); got != 1 {
		t.Errorf("leads captured = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.LeadExtractionsTotal.WithLabelValues(PathFallback, "hit")); got != 1 {
		t.Errorf("extraction hits = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.LeadExtractionsTotal.WithLabelValues(PathFallback, "empty")); got != 1 {
		t.Errorf("extraction empties = %v, expected 1", got)
	}
}

func TestRecordCircuitOpenAndBudget(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWithRegistry(reg)

	m.RecordCircuitOpen()
	m.RecordBudgetExceeded()

	if got := testutil.ToFloat64(m.CircuitBreakerTrips); got != 1 {
		t.Errorf("trips = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.ModelAPICallsTotal.WithLabelValues("budget_exceeded")); got != 1 {
		t.Errorf("budget_exceeded count = %v, expected 1", got)
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"a@b.com", "a***@b.com"},
		{"admin@daedong-rise.com", "ad***@daedong-rise.com"},
		{"no-at-sign", "****"},
	}

	for _, tt := range tests {
		if got := maskEmail(tt.input); got != tt.expected {
			t.Errorf("maskEmail(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestMaskIdentifier(t *testing.T) {
	if got := maskIdentifier("abc"); got != "****" {
		t.Errorf("maskIdentifier(short) = %q", got)
	}
	if got := maskIdentifier("session-12345678"); got != "se****78" {
		t.Errorf("maskIdentifier(long) = %q", got)
	}
}
