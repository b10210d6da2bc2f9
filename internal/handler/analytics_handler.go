package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/metrics"
	"github.com/daedong-rise/portal/internal/sanitize"
	"github.com/daedong-rise/portal/internal/validation"
)

// maxEventNameLength caps the accepted analytics event name.
const maxEventNameLength = 128

// AnalyticsHandler accepts fire-and-forget analytics events from the site.
// Events are logged for later aggregation; the handler never fails the
// caller over a bad payload beyond a 400.
type AnalyticsHandler struct {
	events    *metrics.BusinessEventLogger
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(events *metrics.BusinessEventLogger, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		events:    events,
		sanitizer: sanitize.NewDefault(),
		logger:    logger,
	}
}

// RegisterRoutes registers analytics routes.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/analytics", h.TrackEvent)
}

// AnalyticsEventRequest is the API request body for an analytics event.
type AnalyticsEventRequest struct {
	Event      string                 `json:"event"`
	SessionID  string                 `json:"sessionId,omitempty"`
	Page       string                 `json:"page,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// TrackEvent handles POST /api/analytics.
func (h *AnalyticsHandler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var req AnalyticsEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Event == "" || len(req.Event) > maxEventNameLength {
		APIError(w, http.StatusBadRequest, "event name is required")
		return
	}

	// Properties are caller-controlled free text; scrub contact details
	// and anything credential-shaped before they hit the log stream.
	props := req.Properties
	if props != nil {
		props = h.sanitizer.Map(props)
	}

	h.events.AnalyticsEvent(r.Context(),
		validation.SanitizeString(req.Event),
		req.SessionID,
		validation.SanitizeString(req.Page),
		props,
	)

	w.WriteHeader(http.StatusAccepted)
}
