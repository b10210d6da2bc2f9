// Package metrics provides metrics collection including business event logging.
package metrics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BusinessEventLogger provides structured logging for business events.
// This complements Prometheus metrics by providing detailed, searchable logs
// for business intelligence, debugging, and compliance.
type BusinessEventLogger struct {
	logger *zap.Logger
}

// NewBusinessEventLogger creates a new business event logger.
func NewBusinessEventLogger(logger *zap.Logger) *BusinessEventLogger {
	return &BusinessEventLogger{
		logger: logger.Named("business_events"),
	}
}

// QuoteRequested logs an incoming quote form submission.
func (l *BusinessEventLogger) QuoteRequested(ctx context.Context, quoteID uuid.UUID, productType string, quantity int, country string) {
	l.logger.Info("quote_requested",
		zap.String("event_type", "quote.requested"),
		zap.String("quote_id", quoteID.String()),
		zap.String("product_type", productType),
		zap.Int("quantity", quantity),
		zap.String("country", country),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// QuoteEstimated logs a produced estimate with the path that made it.
func (l *BusinessEventLogger) QuoteEstimated(ctx context.Context, quoteID uuid.UUID, path string, duration time.Duration, priceMin, priceMax int) {
	l.logger.Info("quote_estimated",
		zap.String("event_type", "quote.estimated"),
		zap.String("quote_id", quoteID.String()),
		zap.String("path", path),
		zap.Duration("estimation_duration", duration),
		zap.Int("price_min", priceMin),
		zap.Int("price_max", priceMax),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// LeadCaptured logs a lead create/update, with the score and priority.
func (l *BusinessEventLogger) LeadCaptured(ctx context.Context, leadID uuid.UUID, source string, score int, priority string) {
	l.logger.Info("lead_captured",
		zap.String("event_type", "lead.captured"),
		zap.String("lead_id", leadID.String()),
		zap.String("source", source),
		zap.Int("score", score),
		zap.String("priority", priority),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// LeadSaveFailed logs a lead persistence failure. The pipelines treat this
// as best-effort, so it is a warning, not an error.
func (l *BusinessEventLogger) LeadSaveFailed(ctx context.Context, sessionID string, err error) {
	l.logger.Warn("lead_save_failed",
		zap.String("event_type", "lead.save_failed"),
		zap.String("session_id", maskIdentifier(sessionID)),
		zap.Error(err),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// ChatTurn logs an answered chat turn and the reply path.
func (l *BusinessEventLogger) ChatTurn(ctx context.Context, sessionID, path string, duration time.Duration) {
	l.logger.Info("chat_turn",
		zap.String("event_type", "chat.turn"),
		zap.String("session_id", maskIdentifier(sessionID)),
		zap.String("path", path),
		zap.Duration("duration", duration),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// FallbackUsed logs a degradation to the deterministic path.
func (l *BusinessEventLogger) FallbackUsed(ctx context.Context, pipeline, reason string) {
	l.logger.Warn("fallback_used",
		zap.String("event_type", "fallback.used"),
		zap.String("pipeline", pipeline), // "estimate", "chat", "extract"
		zap.String("reason", reason),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// AnalyticsEvent logs a client-side analytics event.
func (l *BusinessEventLogger) AnalyticsEvent(ctx context.Context, name, sessionID, page string, props map[string]interface{}) {
	l.logger.Info("analytics_event",
		zap.String("event_type", "analytics.event"),
		zap.String("name", name),
		zap.String("session_id", maskIdentifier(sessionID)),
		zap.String("page", page),
		zap.Any("properties", props),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// UserLogin logs an admin login event.
func (l *BusinessEventLogger) UserLogin(ctx context.Context, userID uuid.UUID, email, ip string, success bool) {
	if success {
		l.logger.Info("user_login",
			zap.String("event_type", "user.login"),
			zap.String("user_id", userID.String()),
			zap.String("email", maskEmail(email)),
			zap.String("ip", ip),
			zap.Bool("success", true),
			zap.Time("timestamp", time.Now().UTC()),
		)
	} else {
		l.logger.Warn("user_login_failed",
			zap.String("event_type", "user.login_failed"),
			zap.String("email", maskEmail(email)),
			zap.String("ip", ip),
			zap.Bool("success", false),
			zap.Time("timestamp", time.Now().UTC()),
		)
	}
}

// UserLogout logs an admin logout event.
func (l *BusinessEventLogger) UserLogout(ctx context.Context, userID uuid.UUID, email string) {
	l.logger.Info("user_logout",
		zap.String("event_type", "user.logout"),
		zap.String("user_id", userID.String()),
		zap.String("email", maskEmail(email)),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// APIError logs an API error for monitoring.
func (l *BusinessEventLogger) APIError(ctx context.Context, endpoint, method string, statusCode int, errorMsg string) {
	l.logger.Error("api_error",
		zap.String("event_type", "api.error"),
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.Int("status_code", statusCode),
		zap.String("error", errorMsg),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// ExternalAPICall logs calls to external APIs.
func (l *BusinessEventLogger) ExternalAPICall(ctx context.Context, service, endpoint string, duration time.Duration, success bool, statusCode int) {
	level := l.logger.Info
	eventName := "external_api_call"
	if !success {
		level = l.logger.Warn
		eventName = "external_api_call_failed"
	}
	level(eventName,
		zap.String("event_type", "external_api.call"),
		zap.String("service", service),
		zap.String("endpoint", endpoint),
		zap.Duration("duration", duration),
		zap.Bool("success", success),
		zap.Int("status_code", statusCode),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs when a rate limit is exceeded.
func (l *BusinessEventLogger) RateLimitExceeded(ctx context.Context, limiterType string, identifier string) {
	l.logger.Warn("rate_limit_exceeded",
		zap.String("event_type", "rate_limit.exceeded"),
		zap.String("limiter_type", limiterType),
		zap.String("identifier", maskIdentifier(identifier)),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// DailyStats logs daily aggregate statistics.
func (l *BusinessEventLogger) DailyStats(ctx context.Context, date time.Time, stats DailyStatsData) {
	l.logger.Info("daily_stats",
		zap.String("event_type", "stats.daily"),
		zap.Time("date", date),
		zap.Int("total_leads", stats.TotalLeads),
		zap.Int("quotes_requested", stats.QuotesRequested),
		zap.Int("chat_turns", stats.ChatTurns),
		zap.Float64("total_estimated_value", stats.TotalEstimatedValue),
		zap.Time("timestamp", time.Now().UTC()),
	)
}

// DailyStatsData holds aggregate statistics for a day.
type DailyStatsData struct {
	TotalLeads          int
	QuotesRequested     int
	ChatTurns           int
	TotalEstimatedValue float64
}

// Helper functions for data masking

// maskEmail masks an email for privacy.
func maskEmail(email string) string {
	if len(email) == 0 {
		return ""
	}
	at := -1
	for i, c := range email {
		if c == '@' {
			at = i
			break
		}
	}
	if at <= 0 {
		return "****"
	}
	if at <= 2 {
		return email[0:1] + "***" + email[at:]
	}
	return email[0:2] + "***" + email[at:]
}

// maskIdentifier masks an identifier for privacy.
func maskIdentifier(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return id[:2] + "****" + id[len(id)-2:]
}
