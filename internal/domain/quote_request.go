package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuoteStatus represents the back-office lifecycle state of a quote request.
type QuoteStatus string

const (
	QuoteStatusPending    QuoteStatus = "PENDING"
	QuoteStatusProcessing QuoteStatus = "PROCESSING"
	QuoteStatusSent       QuoteStatus = "SENT"
	QuoteStatusAccepted   QuoteStatus = "ACCEPTED"
	QuoteStatusRejected   QuoteStatus = "REJECTED"
)

// IsValid reports whether the status is a known quote status.
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusProcessing, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected:
		return true
	}
	return false
}

// quoteTransitions encodes the allowed forward transitions:
// PENDING -> PROCESSING -> SENT -> ACCEPTED | REJECTED.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusPending:    {QuoteStatusProcessing},
	QuoteStatusProcessing: {QuoteStatusSent},
	QuoteStatusSent:       {QuoteStatusAccepted, QuoteStatusRejected},
}

// CanTransitionTo reports whether a status change is allowed.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// QuoteRequest is a priced inquiry created once per form submission. Status
// transitions are made only by back-office staff; records are never deleted.
type QuoteRequest struct {
	ID                uuid.UUID   `json:"id"`
	ProductType       string      `json:"product_type"`
	PipeMaterial      *string     `json:"pipe_material,omitempty"`
	PipeDiameter      *string     `json:"pipe_diameter,omitempty"`
	Quantity          int         `json:"quantity"`
	Requirements      *string     `json:"requirements,omitempty"`
	EstimatedPriceMin int         `json:"estimated_price_min"`
	EstimatedPriceMax int         `json:"estimated_price_max"`
	Currency          string      `json:"currency"`
	Recommendations   []string    `json:"recommendations"`
	Name              string      `json:"name"`
	Company           string      `json:"company"`
	Email             string      `json:"email"`
	Phone             *string     `json:"phone,omitempty"`
	Country           string      `json:"country"`
	Status            QuoteStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// NewQuoteRequest creates a quote request in PENDING state.
func NewQuoteRequest(productType string, quantity int) *QuoteRequest {
	now := time.Now().UTC()
	return &QuoteRequest{
		ID:          uuid.New(),
		ProductType: productType,
		Quantity:    quantity,
		Currency:    "USD",
		Status:      QuoteStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the quote request invariants.
func (q *QuoteRequest) Validate() error {
	if q.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", q.Quantity)
	}
	if q.EstimatedPriceMin > q.EstimatedPriceMax {
		return fmt.Errorf("estimated price min %d exceeds max %d", q.EstimatedPriceMin, q.EstimatedPriceMax)
	}
	return nil
}

// QuoteListFilter defines optional filters for listing quote requests.
type QuoteListFilter struct {
	Status *QuoteStatus
}
