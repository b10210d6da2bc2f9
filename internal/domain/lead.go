// Package domain contains the core business entities and interfaces.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daedong-rise/portal/internal/pricing"
)

// LeadStatus represents the back-office lifecycle state of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusConverted LeadStatus = "CONVERTED"
	LeadStatusLost      LeadStatus = "LOST"
)

// IsValid reports whether the status is a known lead status.
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// LeadSource identifies the channel a lead came from.
type LeadSource string

const (
	SourceChatbot   LeadSource = "chatbot"
	SourceQuoteForm LeadSource = "quote_form"
)

// InquiryType classifies what the contact is asking about.
type InquiryType string

const (
	InquiryB2B     InquiryType = "b2b"
	InquiryQuote   InquiryType = "quote"
	InquiryProduct InquiryType = "product"
	InquirySupport InquiryType = "support"
	InquiryOther   InquiryType = "other"
)

// Lead is a contact captured from any channel. SessionID is the unique upsert
// key: a lead is created at most once per session and updated in place on
// every later turn.
type Lead struct {
	ID          uuid.UUID        `json:"id"`
	SessionID   string           `json:"session_id"`
	Name        *string          `json:"name,omitempty"`
	Company     *string          `json:"company,omitempty"`
	Email       *string          `json:"email,omitempty"`
	Phone       *string          `json:"phone,omitempty"`
	Country     *string          `json:"country,omitempty"`
	Locale      *string          `json:"locale,omitempty"`
	InquiryType InquiryType      `json:"inquiry_type,omitempty"`
	Message     *string          `json:"message,omitempty"`
	Source      LeadSource       `json:"source"`
	Status      LeadStatus       `json:"status"`
	Priority    pricing.Priority `json:"priority"`
	AIScore     int              `json:"ai_score"`
	AISummary   *string          `json:"ai_summary,omitempty"`
	ChatHistory []ChatMessage    `json:"chat_history,omitempty"`
	IPAddress   *string          `json:"ip_address,omitempty"`
	UserAgent   *string          `json:"user_agent,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewLead creates a lead with default status and priority.
func NewLead(sessionID string, source LeadSource) *Lead {
	now := time.Now().UTC()
	return &Lead{
		ID:        uuid.New(),
		SessionID: sessionID,
		Source:    source,
		Status:    LeadStatusNew,
		Priority:  pricing.PriorityMedium,
		AIScore:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyContact overwrites lead fields with newly extracted non-nil values.
// Nil/absent fields leave the existing values untouched.
func (l *Lead) ApplyContact(c *LeadContact) {
	if c == nil {
		return
	}
	if c.Name != nil {
		l.Name = c.Name
	}
	if c.Company != nil {
		l.Company = c.Company
	}
	if c.Email != nil {
		l.Email = c.Email
	}
	if c.Phone != nil {
		l.Phone = c.Phone
	}
	if c.Country != nil {
		l.Country = c.Country
	}
	if c.InquiryType != nil {
		l.InquiryType = *c.InquiryType
	}
	l.UpdatedAt = time.Now().UTC()
}

// AppendTranscript appends chat turns to the stored transcript. The
// transcript only ever grows.
func (l *Lead) AppendTranscript(turns ...ChatMessage) {
	l.ChatHistory = append(l.ChatHistory, turns...)
	l.UpdatedAt = time.Now().UTC()
}

// LeadContact is a partial contact record produced by the conversational lead
// extractor. Every field may be absent; an all-nil contact means "nothing
// extractable", which is success, not failure.
type LeadContact struct {
	Name        *string      `json:"name"`
	Company     *string      `json:"company"`
	Email       *string      `json:"email"`
	Phone       *string      `json:"phone"`
	Country     *string      `json:"country"`
	InquiryType *InquiryType `json:"inquiryType"`
}

// IsEmpty reports whether no field was extracted.
func (c *LeadContact) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.Name == nil && c.Company == nil && c.Email == nil &&
		c.Phone == nil && c.Country == nil && c.InquiryType == nil
}

// LeadListFilter defines optional filters for listing leads.
type LeadListFilter struct {
	Status   *LeadStatus
	Priority *pricing.Priority
	Source   *LeadSource
}

// QuoteSessionID mints a fresh session identifier for a lead created from a
// quote form submission.
func QuoteSessionID() string {
	return fmt.Sprintf("quote-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
