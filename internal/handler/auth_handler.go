package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/audit"
	"github.com/daedong-rise/portal/internal/metrics"
	"github.com/daedong-rise/portal/internal/middleware"
	"github.com/daedong-rise/portal/internal/service"
)

// sessionCookieName is the cookie carrying the admin session token.
const sessionCookieName = "session_token"

// AuthHandler handles admin login and logout.
type AuthHandler struct {
	authService *service.AuthService
	rateLimiter *middleware.LoginRateLimiter
	auditLogger *audit.Logger
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	rateLimiter *middleware.LoginRateLimiter,
	auditLogger *audit.Logger,
	metricsCollector *metrics.Metrics,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		rateLimiter: rateLimiter,
		auditLogger: auditLogger,
		metrics:     metricsCollector,
		logger:      logger,
	}
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
}

// LoginRequest is the API request body for admin login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the successful login response.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		APIError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ip := getClientIP(r)

	if h.rateLimiter != nil && !h.rateLimiter.Check(ip, req.Email) {
		if h.metrics != nil {
			h.metrics.RecordAuthRateLimited()
		}
		if h.auditLogger != nil {
			h.auditLogger.RateLimitExceeded(r.Context(), req.Email, ip, GetRequestIDFromContext(r.Context()), "login")
		}
		w.Header().Set("Retry-After", "1800")
		APIError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var authErr *service.AuthError
		if errors.As(err, &authErr) {
			if h.metrics != nil {
				h.metrics.RecordAuthAttempt(false)
			}
			if h.auditLogger != nil {
				h.auditLogger.LoginFailure(r.Context(), req.Email, ip, r.UserAgent(), GetRequestIDFromContext(r.Context()), authErr.Message)
			}
			APIError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		APIError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if h.rateLimiter != nil {
		h.rateLimiter.RecordSuccess(ip, req.Email)
	}
	if h.metrics != nil {
		h.metrics.RecordAuthAttempt(true)
		h.metrics.RecordSessionCreated()
	}
	if h.auditLogger != nil {
		h.auditLogger.LoginSuccess(r.Context(), session.UserID.String(), req.Email, ip, r.UserAgent(), GetRequestIDFromContext(r.Context()))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	JSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		APIError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		h.logger.Warn("logout failed", zap.Error(err))
	}

	if user := GetUserFromContext(r.Context()); user != nil && h.auditLogger != nil {
		h.auditLogger.Logout(r.Context(), user.ID.String(), user.Email, getClientIP(r), GetRequestIDFromContext(r.Context()))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// RequireAuth is middleware that validates the session and adds the user to
// the request context. It accepts a bearer token or the session cookie.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			APIError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := h.authService.ValidateSession(r.Context(), token)
		if err != nil {
			h.logger.Debug("invalid session", zap.Error(err))
			if h.metrics != nil && errors.Is(err, service.ErrSessionExpired) {
				h.metrics.RecordSessionExpired()
			}
			APIError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionToken extracts the session token from the Authorization header or
// the session cookie.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
