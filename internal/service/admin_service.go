package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
)

// ErrInvalidTransition is returned when a quote status change would move
// backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")

// AdminService handles back-office lead and quote triage.
type AdminService struct {
	leadRepo  domain.LeadRepository
	quoteRepo domain.QuoteRepository
	logger    *zap.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(leadRepo domain.LeadRepository, quoteRepo domain.QuoteRepository, logger *zap.Logger) *AdminService {
	return &AdminService{
		leadRepo:  leadRepo,
		quoteRepo: quoteRepo,
		logger:    logger,
	}
}

// ListLeads retrieves leads with pagination and optional filters.
func (s *AdminService) ListLeads(ctx context.Context, page, pageSize int, filter *domain.LeadListFilter) ([]*domain.Lead, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	leads, err := s.leadRepo.List(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.leadRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// UpdateLeadStatus changes the triage status of a lead.
func (s *AdminService) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("unknown lead status %q", status)
	}

	if err := s.leadRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	s.logger.Info("lead status updated",
		zap.String("lead_id", id.String()),
		zap.String("status", string(status)),
	)
	return nil
}

// ListQuotes retrieves quote requests with pagination and optional filters.
func (s *AdminService) ListQuotes(ctx context.Context, page, pageSize int, filter *domain.QuoteListFilter) ([]*domain.QuoteRequest, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	quotes, err := s.quoteRepo.List(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.quoteRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return quotes, total, nil
}

// GetQuote retrieves a quote request by ID.
func (s *AdminService) GetQuote(ctx context.Context, id uuid.UUID) (*domain.QuoteRequest, error) {
	return s.quoteRepo.GetByID(ctx, id)
}

// UpdateQuoteStatus changes the lifecycle status of a quote request. Only
// forward transitions are allowed.
func (s *AdminService) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, status domain.QuoteStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("unknown quote status %q", status)
	}

	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get quote: %w", err)
	}

	if !quote.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, quote.Status, status)
	}

	if err := s.quoteRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}

	s.logger.Info("quote status updated",
		zap.String("quote_id", id.String()),
		zap.String("from", string(quote.Status)),
		zap.String("to", string(status)),
	)
	return nil
}

// normalizePage clamps pagination inputs to sane values.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
