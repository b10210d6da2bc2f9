package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/daedong-rise/portal/internal/domain"
	"github.com/daedong-rise/portal/internal/service"
	"github.com/daedong-rise/portal/internal/validation"
)

// ChatAPIHandler handles chatbot turn requests.
type ChatAPIHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

// NewChatAPIHandler creates a new ChatAPIHandler.
func NewChatAPIHandler(chatService *service.ChatService, logger *zap.Logger) *ChatAPIHandler {
	return &ChatAPIHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// RegisterRoutes registers chat API routes.
func (h *ChatAPIHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleTurn)
}

// ChatTurnRequest is the API request body for one chat turn.
type ChatTurnRequest struct {
	SessionID string        `json:"sessionId"`
	Message   string        `json:"message"`
	History   []ChatMessage `json:"history,omitempty"`
	Locale    string        `json:"locale,omitempty"`
}

// ChatMessage is one prior conversation turn supplied by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HandleTurn handles POST /api/chat.
func (h *ChatAPIHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	var req ChatTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		APIError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Message = validation.SanitizeString(req.Message)

	v := validation.NewChatTurnValidator()
	v.ValidateSessionID(req.SessionID)
	v.ValidateMessage(req.Message)
	v.ValidateHistory(len(req.History))
	if !v.IsValid() {
		APIValidationError(w, toFieldErrors(v.Errors()))
		return
	}

	history := make([]domain.ChatMessage, 0, len(req.History))
	for _, m := range req.History {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		history = append(history, domain.ChatMessage{Role: m.Role, Content: m.Content})
	}

	result, err := h.chatService.HandleTurn(r.Context(), service.TurnInput{
		SessionID: req.SessionID,
		Message:   req.Message,
		History:   history,
		Meta: domain.LeadMeta{
			IPAddress: getClientIP(r),
			UserAgent: r.UserAgent(),
			Locale:    req.Locale,
		},
	})
	if err != nil {
		h.logger.Error("chat turn failed", zap.String("session_id", req.SessionID), zap.Error(err))
		APIError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	JSON(w, http.StatusOK, result)
}
