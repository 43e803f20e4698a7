package record

import "strings"

// Chat senders.
const (
	SenderUser  = "user"
	SenderCoach = "coach"
)

// senderAliases maps chat-completion role names onto senders.
var senderAliases = map[string]string{
	"assistant": SenderCoach,
	"model":     SenderCoach,
	"human":     SenderUser,
}

// ChatMessage is one conversation turn.
type ChatMessage struct {
	Sender      string         `json:"sender"`
	Content     string         `json:"content"`
	Timestamp   Timestamp      `json:"timestamp"`
	MessageType string         `json:"message_type"`
	Metadata    map[string]any `json:"metadata"`

	// Role is the chat-completion name for Sender, accepted on input only.
	Role string `json:"role,omitempty"`
}

func (m *ChatMessage) normalize() {
	if m.Sender == "" {
		m.Sender = m.Role
	}
	m.Role = ""
	m.Sender = strings.ToLower(strings.TrimSpace(m.Sender))
	if alias, ok := senderAliases[m.Sender]; ok {
		m.Sender = alias
	}
	if m.MessageType == "" {
		m.MessageType = "text"
	}
	m.Metadata = sanitizeMap(m.Metadata)
}

// ChatHistory is the conversation log, oldest turn first.
type ChatHistory struct {
	UserID          string        `json:"user_id"`
	Conversations   []ChatMessage `json:"conversations"`
	LastInteraction *Timestamp    `json:"last_interaction"`
	LastUpdated     *Timestamp    `json:"last_updated"`
}

func (h *ChatHistory) Normalize() {
	h.Conversations = orEmpty(h.Conversations)
	for i := range h.Conversations {
		h.Conversations[i].normalize()
	}
	if h.LastInteraction == nil {
		for i := len(h.Conversations) - 1; i >= 0; i-- {
			if ts := h.Conversations[i].Timestamp; !ts.IsZero() {
				h.LastInteraction = &ts
				break
			}
		}
	}
}

func (h *ChatHistory) Validate() error {
	for i, m := range h.Conversations {
		if m.Sender == "" {
			return invalid(indexed("conversations", i)+".sender", "must not be empty")
		}
	}
	return nil
}
