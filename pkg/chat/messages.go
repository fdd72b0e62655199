package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one turn in a conversation. Text is mutable only while the
// message is streaming.
type Message struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	IsStreaming bool      `json:"is_streaming,omitempty"`
}

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
	SenderSystem    = "system"
	SenderError     = "error"
)

// newLocalID creates a synthetic identifier for a message that has no
// server record yet
func newLocalID(sender string) string {
	return uuid.NewString() + "-" + sender
}

func NewUserMessage(text string) Message {
	return Message{
		ID:        newLocalID(SenderUser),
		Sender:    SenderUser,
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now(),
	}
}

func NewAssistantMessage(text string) Message {
	return Message{
		ID:        newLocalID(SenderAssistant),
		Sender:    SenderAssistant,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func NewSystemMessage(text string) Message {
	return Message{
		ID:        newLocalID(SenderSystem),
		Sender:    SenderSystem,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

func NewErrorMessage(text string) Message {
	return Message{
		ID:        newLocalID(SenderError),
		Sender:    SenderError,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// NewStreamingPlaceholder creates the empty assistant entry that receives
// chunks while a response is in flight
func NewStreamingPlaceholder() Message {
	return Message{
		ID:          newLocalID(SenderAssistant),
		Sender:      SenderAssistant,
		Text:        "",
		CreatedAt:   time.Now(),
		IsStreaming: true,
	}
}

func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

func (m Message) IsAssistant() bool {
	return m.Sender == SenderAssistant
}

func (m Message) IsSystem() bool {
	return m.Sender == SenderSystem
}

func (m Message) IsError() bool {
	return m.Sender == SenderError
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}
