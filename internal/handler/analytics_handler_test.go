package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/daedong-rise/portal/internal/metrics"
)

func newTestAnalyticsHandler() (*AnalyticsHandler, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	events := metrics.NewBusinessEventLogger(zap.New(core))
	return NewAnalyticsHandler(events, zap.NewNop()), logs
}

func TestAnalyticsHandler_TrackEvent(t *testing.T) {
	handler, logs := newTestAnalyticsHandler()

	body := `{"event": "quote_form_viewed", "sessionId": "session-1", "page": "/quote", "properties": {"locale": "en"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analytics", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	handler.TrackEvent(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}

	if logs.Len() != 1 {
		t.Fatalf("expected 1 logged event, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "analytics_event" {
		t.Errorf("unexpected log message %q", entry.Message)
	}
}

func TestAnalyticsHandler_TrackEvent_ScrubsProperties(t *testing.T) {
	handler, logs := newTestAnalyticsHandler()

	body := `{"event": "chat_opened", "properties": {"contact": "buyer@gulfpipes.ae", "session_token": "abc123"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analytics", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	handler.TrackEvent(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 logged event, got %d", logs.Len())
	}

	props, ok := logs.All()[0].ContextMap()["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("expected properties field in log entry")
	}
	if props["contact"] != "bu***@gulfpipes.ae" {
		t.Errorf("expected masked email, got %v", props["contact"])
	}
	if props["session_token"] != "[REDACTED]" {
		t.Errorf("expected redacted token, got %v", props["session_token"])
	}
}

func TestAnalyticsHandler_TrackEvent_MissingName(t *testing.T) {
	handler, logs := newTestAnalyticsHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/analytics", bytes.NewBufferString(`{"page": "/"}`))
	rr := httptest.NewRecorder()

	handler.TrackEvent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if logs.Len() != 0 {
		t.Error("nothing should be logged for a rejected event")
	}
}

func TestAnalyticsHandler_TrackEvent_NameTooLong(t *testing.T) {
	handler, _ := newTestAnalyticsHandler()

	body := `{"event": "` + strings.Repeat("x", maxEventNameLength+1) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analytics", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	handler.TrackEvent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestAnalyticsHandler_TrackEvent_InvalidJSON(t *testing.T) {
	handler, _ := newTestAnalyticsHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/analytics", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()

	handler.TrackEvent(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}
