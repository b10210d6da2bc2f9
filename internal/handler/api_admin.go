package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/audit"
	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/pricing"
	"github.com/daedong-rise/portal/internal/repository"
	"github.com/daedong-rise/portal/internal/service"
)

// AdminAPIHandler exposes the back-office JSON API for lead and quote triage.
type AdminAPIHandler struct {
	adminService *service.AdminService
	auditLogger  *audit.Logger
	logger       *zap.Logger
}

// NewAdminAPIHandler creates a new AdminAPIHandler.
func NewAdminAPIHandler(adminService *service.AdminService, auditLogger *audit.Logger, logger *zap.Logger) *AdminAPIHandler {
	return &AdminAPIHandler{
		adminService: adminService,
		auditLogger:  auditLogger,
		logger:       logger,
	}
}

// RegisterRoutes registers admin routes. The router is expected to be
// mounted behind authentication middleware.
func (h *AdminAPIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leads", h.ListLeads)
	r.Patch("/leads/{leadID}/status", h.UpdateLeadStatus)
	r.Get("/quotes", h.ListQuotes)
	r.Get("/quotes/{quoteID}", h.GetQuote)
	r.Patch("/quotes/{quoteID}/status", h.UpdateQuoteStatus)
}

// ListLeads handles GET /api/admin/leads.
func (h *AdminAPIHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filter := leadFilterFromQuery(r)

	leads, total, err := h.adminService.ListLeads(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		APIError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	JSON(w, http.StatusOK, PagedResponse{
		Data:     leads,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// StatusUpdateRequest is the request body for status change endpoints.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// UpdateLeadStatus handles PATCH /api/admin/leads/{leadID}/status.
func (h *AdminAPIHandler) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		APIError(w, http.StatusBadRequest, "invalid lead ID")
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := domain.LeadStatus(req.Status)
	if !status.IsValid() {
		APIError(w, http.StatusBadRequest, "unknown lead status")
		return
	}

	if err := h.adminService.UpdateLeadStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			APIError(w, http.StatusNotFound, "lead not found")
			return
		}
		h.logger.Error("failed to update lead status", zap.Error(err), zap.String("lead_id", id.String()))
		APIError(w, http.StatusInternalServerError, "failed to update lead status")
		return
	}

	if h.auditLogger != nil {
		if user := GetUserFromContext(r.Context()); user != nil {
			h.auditLogger.LeadStatusChanged(r.Context(), user.ID.String(), user.Email, id.String(),
				getClientIP(r), GetRequestIDFromContext(r.Context()), "", string(status))
		}
	}

	JSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// ListQuotes handles GET /api/admin/quotes.
func (h *AdminAPIHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	filter := quoteFilterFromQuery(r)

	quotes, total, err := h.adminService.ListQuotes(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list quotes", zap.Error(err))
		APIError(w, http.StatusInternalServerError, "failed to list quotes")
		return
	}

	JSON(w, http.StatusOK, PagedResponse{
		Data:     quotes,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetQuote handles GET /api/admin/quotes/{quoteID}.
func (h *AdminAPIHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "quoteID"))
	if err != nil {
		APIError(w, http.StatusBadRequest, "invalid quote ID")
		return
	}

	quote, err := h.adminService.GetQuote(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			APIError(w, http.StatusNotFound, "quote not found")
			return
		}
		h.logger.Error("failed to get quote", zap.Error(err), zap.String("quote_id", id.String()))
		APIError(w, http.StatusInternalServerError, "failed to get quote")
		return
	}

	JSON(w, http.StatusOK, quote)
}

// UpdateQuoteStatus handles PATCH /api/admin/quotes/{quoteID}/status.
func (h *AdminAPIHandler) UpdateQuoteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "quoteID"))
	if err != nil {
		APIError(w, http.StatusBadRequest, "invalid quote ID")
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := domain.QuoteStatus(req.Status)
	if !status.IsValid() {
		APIError(w, http.StatusBadRequest, "unknown quote status")
		return
	}

	if err := h.adminService.UpdateQuoteStatus(r.Context(), id, status); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			APIError(w, http.StatusNotFound, "quote not found")
		case errors.Is(err, service.ErrInvalidTransition):
			APIError(w, http.StatusBadRequest, "invalid status transition")
		default:
			h.logger.Error("failed to update quote status", zap.Error(err), zap.String("quote_id", id.String()))
			APIError(w, http.StatusInternalServerError, "failed to update quote status")
		}
		return
	}

	if h.auditLogger != nil {
		if user := GetUserFromContext(r.Context()); user != nil {
			h.auditLogger.QuoteStatusChanged(r.Context(), user.ID.String(), user.Email, id.String(),
				getClientIP(r), GetRequestIDFromContext(r.Context()), "", string(status))
		}
	}

	JSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// leadFilterFromQuery builds a lead list filter from query parameters.
func leadFilterFromQuery(r *http.Request) *domain.LeadListFilter {
	filter := &domain.LeadListFilter{}
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status := domain.LeadStatus(v)
		if status.IsValid() {
			filter.Status = &status
		}
	}
	if v := q.Get("priority"); v != "" {
		priority := pricing.Priority(v)
		filter.Priority = &priority
	}
	if v := q.Get("source"); v != "" {
		source := domain.LeadSource(v)
		filter.Source = &source
	}
	return filter
}

// quoteFilterFromQuery builds a quote list filter from query parameters.
func quoteFilterFromQuery(r *http.Request) *domain.QuoteListFilter {
	filter := &domain.QuoteListFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.QuoteStatus(v)
		if status.IsValid() {
			filter.Status = &status
		}
	}
	return filter
}
