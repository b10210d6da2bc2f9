package domain

import "testing"

func TestQuoteStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    QuoteStatus
		to      QuoteStatus
		allowed bool
	}{
		{QuoteStatusPending, QuoteStatusProcessing, true},
		{QuoteStatusProcessing, QuoteStatusSent, true},
		{QuoteStatusSent, QuoteStatusAccepted, true},
		{QuoteStatusSent, QuoteStatusRejected, true},
		{QuoteStatusPending, QuoteStatusSent, false},
		{QuoteStatusAccepted, QuoteStatusRejected, false},
		{QuoteStatusRejected, QuoteStatusPending, false},
		{QuoteStatusSent, QuoteStatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestQuoteRequest_Validate(t *testing.T) {
	q := NewQuoteRequest("exact-pipecut", 5)
	q.EstimatedPriceMin = 1000
	q.EstimatedPriceMax = 2000
	if err := q.Validate(); err != nil {
		t.Errorf("valid quote rejected: %v", err)
	}

	q.Quantity = 0
	if err := q.Validate(); err == nil {
		t.Error("zero quantity should fail validation")
	}

	q.Quantity = 5
	q.EstimatedPriceMin = 3000
	if err := q.Validate(); err == nil {
		t.Error("min > max should fail validation")
	}
}

func TestNewQuoteRequest_Defaults(t *testing.T) {
	q := NewQuoteRequest("3m-tape", 2)
	if q.Status != QuoteStatusPending {
		t.Errorf("status = %q, want PENDING", q.Status)
	}
	if q.Currency != "USD" {
		t.Errorf("currency = %q, want USD", q.Currency)
	}
	if q.ID.String() == "" {
		t.Error("expected generated id")
	}
}
