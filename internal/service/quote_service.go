// Package service contains business logic implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/ai"
	"github.com/daedong-rise/portal/internal/domain"
	apperrors "github.com/daedong-rise/portal/internal/errors"
	"github.com/daedong-rise/portal/internal/metrics"
	"github.com/daedong-rise/portal/internal/pricing"
	"github.com/daedong-rise/portal/internal/ratelimit"
	"github.com/daedong-rise/portal/internal/sanitize"
)

// ModelEstimator defines the interface for AI-backed price estimation.
type ModelEstimator interface {
	EstimateQuote(ctx context.Context, input ai.EstimateInput) (*pricing.Estimate, error)
}

// QuoteService handles quote form submissions: estimation, scoring, and
// persistence of the resulting quote request and lead.
type QuoteService struct {
	estimator ModelEstimator
	budget    *ratelimit.BudgetLimiter
	quoteRepo domain.QuoteRepository
	leadRepo  domain.LeadRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics
	events    *metrics.BusinessEventLogger
}

// NewQuoteService creates a new QuoteService. A nil estimator disables the AI
// path entirely; every request then uses the rule-based estimator.
func NewQuoteService(
	estimator ModelEstimator,
	budget *ratelimit.BudgetLimiter,
	quoteRepo domain.QuoteRepository,
	leadRepo domain.LeadRepository,
	logger *zap.Logger,
	metricsCollector *metrics.Metrics,
	events *metrics.BusinessEventLogger,
) *QuoteService {
	return &QuoteService{
		estimator: estimator,
		budget:    budget,
		quoteRepo: quoteRepo,
		leadRepo:  leadRepo,
		logger:    logger,
		metrics:   metricsCollector,
		events:    events,
	}
}

// SubmitQuoteInput holds a validated quote form submission.
type SubmitQuoteInput struct {
	ProductType  string
	PipeMaterial string
	PipeDiameter string
	Quantity     int
	Requirements string
	Name         string
	Company      string
	Email        string
	Phone        string
	Country      string
	Meta         domain.LeadMeta
}

// SubmitQuoteResult is the outcome of a quote submission. The estimate is
// always present: estimation cannot fail, only degrade to the rule path.
// Score and Priority are back-office fields; the public handler must not
// echo them to the prospect.
type SubmitQuoteResult struct {
	QuoteID  string
	Estimate pricing.Estimate
	Score    int
	Priority pricing.Priority
}

// SubmitQuote runs the full quote pipeline: estimate, score, persist. Storage
// failures are logged and do not block the response.
func (s *QuoteService) SubmitQuote(ctx context.Context, input SubmitQuoteInput) (*SubmitQuoteResult, error) {
	if input.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", input.Quantity)
	}

	start := time.Now()
	estimate, path := s.estimate(ctx, input)
	elapsed := time.Since(start)

	leadScore := pricing.Score(estimate.AverageValue(), input.Quantity, input.Requirements, input.Country)

	quote := s.buildQuote(input, &estimate)
	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		s.logger.Error("failed to save quote request",
			zap.String("product_type", input.ProductType),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.ErrorRates.RecordError(metrics.ErrorCategoryDatabase)
		}
	} else if s.events != nil {
		s.events.QuoteRequested(ctx, quote.ID, input.ProductType, input.Quantity, input.Country)
		s.events.QuoteEstimated(ctx, quote.ID, path, elapsed, estimate.PriceMin, estimate.PriceMax)
	}

	s.saveLead(ctx, input, leadScore)

	if s.metrics != nil {
		s.metrics.RecordQuoteEstimate(path, true, elapsed)
	}

	s.logger.Info("quote submitted",
		zap.String("quote_id", quote.ID.String()),
		zap.String("path", path),
		zap.String("email", sanitize.Email(input.Email)),
		zap.Int("price_min", estimate.PriceMin),
		zap.Int("price_max", estimate.PriceMax),
		zap.Int("score", leadScore.Score),
		zap.String("priority", string(leadScore.Priority)),
	)

	return &SubmitQuoteResult{
		QuoteID:  quote.ID.String(),
		Estimate: estimate,
		Score:    leadScore.Score,
		Priority: leadScore.Priority,
	}, nil
}

// estimate runs the AI estimation path when available and falls back to the
// rule-based estimator on any failure. The returned path label says which
// pipeline produced the estimate.
func (s *QuoteService) estimate(ctx context.Context, input SubmitQuoteInput) (pricing.Estimate, string) {
	ruleReq := pricing.EstimateRequest{
		ProductType:  input.ProductType,
		Quantity:     input.Quantity,
		Country:      input.Country,
		PipeDiameter: input.PipeDiameter,
	}

	if s.estimator == nil {
		return ruleReq.Estimate(), metrics.PathFallback
	}

	if s.budget != nil {
		if err := s.budget.Acquire(); err != nil {
			s.logger.Warn("model budget exhausted, using rule estimator", zap.Error(err))
			if s.metrics != nil {
				s.metrics.RecordBudgetExceeded()
			}
			if s.events != nil {
				s.events.FallbackUsed(ctx, "estimate", "budget_exceeded")
			}
			return ruleReq.Estimate(), metrics.PathFallback
		}
		defer s.budget.Release()
	}

	estimate, err := s.estimator.EstimateQuote(ctx, ai.EstimateInput{
		ProductType:  input.ProductType,
		PipeMaterial: input.PipeMaterial,
		PipeDiameter: input.PipeDiameter,
		Quantity:     input.Quantity,
		Requirements: input.Requirements,
		Country:      input.Country,
	})
	if err != nil {
		s.logger.Warn("model estimation failed, using rule estimator",
			zap.String("product_type", input.ProductType),
			zap.String("error_code", string(apperrors.GetCode(err))),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.ErrorRates.RecordError(metrics.ErrorCategoryExternal)
		}
		if s.events != nil {
			s.events.FallbackUsed(ctx, "estimate", "model_error")
		}
		return ruleReq.Estimate(), metrics.PathFallback
	}

	return *estimate, metrics.PathModel
}

// buildQuote assembles the persisted quote request from the form input and
// the produced estimate.
func (s *QuoteService) buildQuote(input SubmitQuoteInput, estimate *pricing.Estimate) *domain.QuoteRequest {
	quote := domain.NewQuoteRequest(input.ProductType, input.Quantity)
	quote.PipeMaterial = nilIfBlank(input.PipeMaterial)
	quote.PipeDiameter = nilIfBlank(input.PipeDiameter)
	quote.Requirements = nilIfBlank(input.Requirements)
	quote.EstimatedPriceMin = estimate.PriceMin
	quote.EstimatedPriceMax = estimate.PriceMax
	quote.Currency = estimate.Currency
	quote.Recommendations = estimate.Recommendations
	quote.Name = input.Name
	quote.Company = input.Company
	quote.Email = input.Email
	quote.Phone = nilIfBlank(input.Phone)
	quote.Country = input.Country
	return quote
}

// saveLead captures a lead from the quote form. Failures are logged only.
func (s *QuoteService) saveLead(ctx context.Context, input SubmitQuoteInput, score pricing.LeadScore) {
	sessionID := domain.QuoteSessionID()
	lead := domain.NewLead(sessionID, domain.SourceQuoteForm)
	lead.Name = nilIfBlank(input.Name)
	lead.Company = nilIfBlank(input.Company)
	lead.Email = nilIfBlank(input.Email)
	lead.Phone = nilIfBlank(input.Phone)
	lead.Country = nilIfBlank(input.Country)
	lead.InquiryType = domain.InquiryQuote
	lead.Message = nilIfBlank(input.Requirements)
	lead.AIScore = score.Score
	lead.Priority = score.Priority
	lead.IPAddress = nilIfBlank(input.Meta.IPAddress)
	lead.UserAgent = nilIfBlank(input.Meta.UserAgent)
	lead.Locale = nilIfBlank(input.Meta.Locale)

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		s.logger.Error("failed to save quote lead",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		if s.events != nil {
			s.events.LeadSaveFailed(ctx, sessionID, err)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordLeadCaptured(string(domain.SourceQuoteForm))
	}
	if s.events != nil {
		s.events.LeadCaptured(ctx, lead.ID, string(domain.SourceQuoteForm), score.Score, string(score.Priority))
	}
}

func nilIfBlank(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
