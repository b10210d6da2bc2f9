package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
	apperrors "github.com/daedong-rise/portal/internal/errors"
	"github.com/daedong-rise/portal/internal/leadextract"
	"github.com/daedong-rise/portal/internal/metrics"
	"github.com/daedong-rise/portal/internal/ratelimit"
	"github.com/daedong-rise/portal/internal/repository"
)

// ModelChatter defines the interface for AI-backed chat replies.
type ModelChatter interface {
	Chat(ctx context.Context, history []domain.ChatMessage, userMessage string) (string, error)
}

// ChatService handles chatbot turns: reply generation, lead extraction, and
// lead upsert keyed by session id.
type ChatService struct {
	chatter   ModelChatter
	extractor *leadextract.Extractor
	budget    *ratelimit.BudgetLimiter
	leadRepo  domain.LeadRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics
	events    *metrics.BusinessEventLogger
}

// NewChatService creates a new ChatService. A nil chatter disables the AI
// path; every turn is then answered from the canned response set.
func NewChatService(
	chatter ModelChatter,
	extractor *leadextract.Extractor,
	budget *ratelimit.BudgetLimiter,
	leadRepo domain.LeadRepository,
	logger *zap.Logger,
	metricsCollector *metrics.Metrics,
	events *metrics.BusinessEventLogger,
) *ChatService {
	return &ChatService{
		chatter:   chatter,
		extractor: extractor,
		budget:    budget,
		leadRepo:  leadRepo,
		logger:    logger,
		metrics:   metricsCollector,
		events:    events,
	}
}

// TurnInput holds a validated chat turn request.
type TurnInput struct {
	SessionID string
	Message   string
	History   []domain.ChatMessage
	Meta      domain.LeadMeta
}

// TurnResult is the outcome of one chat turn. Contact carries whatever lead
// fields were extracted from this turn; it is nil, and omitted from the JSON
// body, when the turn yielded nothing.
type TurnResult struct {
	Reply   string              `json:"response"`
	Contact *domain.LeadContact `json:"leadInfo,omitempty"`
}

// HandleTurn produces one assistant reply and updates the session's lead
// record. Model failures degrade to the canned reply; persistence failures
// are logged. The user always gets a reply.
//
// One budget token covers the whole turn: the reply call and the lead
// extraction that follows it. When the budget is exhausted both fall back,
// so extraction can never spend past the limit.
func (s *ChatService) HandleTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	modelAllowed := true
	if s.budget != nil {
		if err := s.budget.Acquire(); err != nil {
			s.logger.Warn("model budget exhausted, using canned reply",
				zap.String("session_id", input.SessionID),
				zap.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordBudgetExceeded()
			}
			if s.events != nil {
				s.events.FallbackUsed(ctx, "chat", "budget_exceeded")
			}
			modelAllowed = false
		} else {
			defer s.budget.Release()
		}
	}

	start := time.Now()
	reply, path := s.reply(ctx, input, modelAllowed)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordChatTurn(path, elapsed)
	}
	if s.events != nil {
		s.events.ChatTurn(ctx, input.SessionID, path, elapsed)
	}

	contact := s.extractAndSave(ctx, input, reply, modelAllowed)
	if contact.IsEmpty() {
		contact = nil
	}

	return &TurnResult{Reply: reply, Contact: contact}, nil
}

// reply produces the assistant reply, preferring the model path.
func (s *ChatService) reply(ctx context.Context, input TurnInput, modelAllowed bool) (string, string) {
	if s.chatter == nil || !modelAllowed {
		return cannedReply(input.Message), metrics.PathFallback
	}

	reply, err := s.chatter.Chat(ctx, input.History, input.Message)
	if err != nil {
		s.logger.Warn("model chat failed, using canned reply",
			zap.String("session_id", input.SessionID),
			zap.String("error_code", string(apperrors.GetCode(err))),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.ErrorRates.RecordError(metrics.ErrorCategoryExternal)
		}
		if s.events != nil {
			s.events.FallbackUsed(ctx, "chat", "model_error")
		}
		return cannedReply(input.Message), metrics.PathFallback
	}

	return reply, metrics.PathModel
}

// extractAndSave runs lead extraction over the turn and upserts the session
// lead with the new transcript turns. Returns the extracted contact, which may
// be empty when nothing was found.
//
// A lead row exists only once a turn yields extractable contact info; until
// then, turns leave no trace. Once the session has a lead, every later turn
// appends its transcript even when it extracts nothing new.
func (s *ChatService) extractAndSave(ctx context.Context, input TurnInput, reply string, modelAllowed bool) *domain.LeadContact {
	var contact *domain.LeadContact
	if s.extractor != nil {
		var usedModel bool
		if modelAllowed {
			contact, usedModel = s.extractor.Extract(ctx, input.Message, reply)
		} else {
			contact = s.extractor.ExtractFallback(input.Message, reply)
		}

		if s.metrics != nil {
			path := metrics.PathFallback
			if usedModel {
				path = metrics.PathModel
			}
			s.metrics.RecordLeadExtraction(path, contact.IsEmpty())
		}
	}

	if contact.IsEmpty() && !s.sessionHasLead(ctx, input.SessionID) {
		return contact
	}

	transcript := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: input.Message},
		{Role: domain.RoleAssistant, Content: reply},
	}

	lead, err := s.leadRepo.Upsert(ctx, input.SessionID, contact, transcript, &input.Meta)
	if err != nil {
		s.logger.Error("failed to upsert chat lead",
			zap.String("session_id", input.SessionID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.ErrorRates.RecordError(metrics.ErrorCategoryDatabase)
		}
		if s.events != nil {
			s.events.LeadSaveFailed(ctx, input.SessionID, err)
		}
		return contact
	}

	if !contact.IsEmpty() {
		if s.metrics != nil {
			s.metrics.RecordLeadCaptured(string(domain.SourceChatbot))
		}
		if s.events != nil {
			s.events.LeadCaptured(ctx, lead.ID, string(domain.SourceChatbot), lead.AIScore, string(lead.Priority))
		}
	}

	return contact
}

// sessionHasLead reports whether a lead row already exists for the session.
// Lookup errors count as no lead.
func (s *ChatService) sessionHasLead(ctx context.Context, sessionID string) bool {
	_, err := s.leadRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("session lead lookup failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
		return false
	}
	return true
}
