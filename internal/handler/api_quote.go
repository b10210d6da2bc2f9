package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/pricing"
	"github.com/daedong-rise/portal/internal/service"
	"github.com/daedong-rise/portal/internal/validation"
)

// QuoteAPIHandler handles quote form submissions.
type QuoteAPIHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

// NewQuoteAPIHandler creates a new QuoteAPIHandler.
func NewQuoteAPIHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteAPIHandler {
	return &QuoteAPIHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// RegisterRoutes registers quote API routes.
func (h *QuoteAPIHandler) RegisterRoutes(r chi.Router) {
	r.Post("/quote", h.SubmitQuote)
}

// SubmitQuoteRequest is the API request body for a quote form submission.
type SubmitQuoteRequest struct {
	ProductType  string `json:"productType"`
	PipeMaterial string `json:"pipeMaterial,omitempty"`
	PipeDiameter string `json:"pipeDiameter,omitempty"`
	Quantity     int    `json:"quantity"`
	Requirements string `json:"requirements,omitempty"`
	Name         string `json:"name"`
	Company      string `json:"company"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Country      string `json:"country"`
	Locale       string `json:"locale,omitempty"`
}

// SubmitQuoteResponse is the public response body for a quote submission.
// It carries only the estimate; lead scoring stays server-side.
type SubmitQuoteResponse struct {
	Success  bool             `json:"success"`
	Estimate pricing.Estimate `json:"estimate"`
}

// SubmitQuote handles POST /api/quote.
func (h *QuoteAPIHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	var req SubmitQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = validation.SanitizeString(req.Name)
	req.Company = validation.SanitizeString(req.Company)
	req.Requirements = validation.SanitizeString(req.Requirements)
	req.Phone = validation.SanitizePhoneNumber(req.Phone)

	v := validation.NewQuoteFormValidator()
	v.ValidateProductType(req.ProductType)
	v.ValidateQuantity(req.Quantity)
	v.ValidateContact(req.Name, req.Company, req.Email, req.Phone, req.Country)
	v.ValidateRequirements(req.Requirements)
	if !v.IsValid() {
		APIValidationError(w, toFieldErrors(v.Errors()))
		return
	}

	result, err := h.quoteService.SubmitQuote(r.Context(), service.SubmitQuoteInput{
		ProductType:  req.ProductType,
		PipeMaterial: req.PipeMaterial,
		PipeDiameter: req.PipeDiameter,
		Quantity:     req.Quantity,
		Requirements: req.Requirements,
		Name:         req.Name,
		Company:      req.Company,
		Email:        req.Email,
		Phone:        req.Phone,
		Country:      req.Country,
		Meta: domain.LeadMeta{
			IPAddress: getClientIP(r),
			UserAgent: r.UserAgent(),
			Locale:    req.Locale,
		},
	})
	if err != nil {
		h.logger.Error("quote submission failed", zap.Error(err))
		APIError(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusCreated, SubmitQuoteResponse{Success: true, Estimate: result.Estimate})
}

// toFieldErrors converts validation errors to the API error shape.
func toFieldErrors(errs validation.ValidationErrors) []ValidationFieldError {
	out := make([]ValidationFieldError, len(errs))
	for i, e := range errs {
		out[i] = ValidationFieldError{Field: e.Field, Message: e.Message, Code: e.Code}
	}
	return out
}
