package domain

// Chat roles as they appear in transcripts and model requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryWindow is the number of prior turns sent to the model per chat call.
const HistoryWindow = 10

// WindowedHistory returns at most the last n turns of a conversation.
func WindowedHistory(history []ChatMessage, n int) []ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
