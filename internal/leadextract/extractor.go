// Package leadextract pulls contact details out of chat conversations.
// The primary path asks the model for a structured extraction; when the
// model is unavailable or returns garbage, a regex scan over the same text
// produces a best-effort partial contact instead.
package leadextract

import (
	"context"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`([a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+)`)
	phonePattern = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9})`)
)

// inquiryKeywords maps keyword groups to inquiry types. Order matters:
// the first group with a hit wins.
var inquiryKeywords = []struct {
	inquiry  domain.InquiryType
	keywords []string
}{
	{domain.InquiryB2B, []string{"partnership", "partner", "distributor"}},
	{domain.InquiryQuote, []string{"quote", "price", "bulk"}},
	{domain.InquirySupport, []string{"support", "help", "service"}},
	{domain.InquiryProduct, []string{"product", "spec", "information"}},
}

// ModelExtractor is the structured-extraction capability of the model client.
type ModelExtractor interface {
	ExtractLead(ctx context.Context, userMessage, assistantReply string) (*domain.LeadContact, error)
}

// Extractor extracts partial lead contacts from a chat turn.
type Extractor struct {
	model  ModelExtractor
	logger *zap.Logger
}

// New creates an Extractor. model may be nil, in which case every
// extraction uses the regex fallback.
func New(model ModelExtractor, logger *zap.Logger) *Extractor {
	return &Extractor{model: model, logger: logger}
}

// Extract returns whatever contact details can be found in the user message
// and assistant reply of one chat turn. The returned contact may be empty;
// that is a normal outcome, not an error. usedModel reports whether the
// model path produced the result.
func (e *Extractor) Extract(ctx context.Context, userMessage, assistantReply string) (contact *domain.LeadContact, usedModel bool) {
	if e.model != nil {
		extracted, err := e.model.ExtractLead(ctx, userMessage, assistantReply)
		if err == nil {
			normalizePhone(extracted)
			return extracted, true
		}
		e.logger.Warn("model lead extraction failed, using regex fallback", zap.Error(err))
	}

	return e.fallback(userMessage, assistantReply), false
}

// ExtractFallback runs only the regex scan, never the model. Callers use it
// when the turn's model spend is already exhausted.
func (e *Extractor) ExtractFallback(userMessage, assistantReply string) *domain.LeadContact {
	return e.fallback(userMessage, assistantReply)
}

// fallback scans the combined turn text with regular expressions.
func (e *Extractor) fallback(userMessage, assistantReply string) *domain.LeadContact {
	combined := userMessage + " " + assistantReply
	contact := &domain.LeadContact{}

	if m := emailPattern.FindString(combined); m != "" {
		contact.Email = &m
	}

	if m := phonePattern.FindString(combined); m != "" {
		phone := m
		contact.Phone = &phone
	}
	normalizePhone(contact)

	lower := strings.ToLower(combined)
	for _, group := range inquiryKeywords {
		if containsAny(lower, group.keywords) {
			inquiry := group.inquiry
			contact.InquiryType = &inquiry
			break
		}
	}

	return contact
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// normalizePhone rewrites an extracted phone number to E.164 when it parses
// as a valid international number. Numbers without a country prefix are kept
// verbatim: guessing a region would corrupt more numbers than it fixes.
func normalizePhone(contact *domain.LeadContact) {
	if contact == nil || contact.Phone == nil {
		return
	}
	raw := strings.TrimSpace(*contact.Phone)
	if !strings.HasPrefix(raw, "+") {
		return
	}
	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return
	}
	formatted := phonenumbers.Format(parsed, phonenumbers.E164)
	contact.Phone = &formatted
}
