package chat

import (
	"fmt"

	"github.com/marchholm/sage/pkg/api"
)

// MessagesFromRecord maps a persisted conversation into transcript entries:
// one user message per exchange plus, when a response exists, one assistant
// message sharing the exchange's timestamp.
func MessagesFromRecord(detail *api.ConversationDetail) []Message {
	if detail == nil {
		return nil
	}

	messages := make([]Message, 0, len(detail.Messages)*2)
	for _, record := range detail.Messages {
		messages = append(messages, Message{
			ID:        fmt.Sprintf("%d-user", record.ID),
			Sender:    SenderUser,
			Text:      record.Message,
			CreatedAt: record.CreatedAt,
		})
		if record.Response != nil && *record.Response != "" {
			messages = append(messages, Message{
				ID:        fmt.Sprintf("%d-assistant", record.ID),
				Sender:    SenderAssistant,
				Text:      *record.Response,
				CreatedAt: record.CreatedAt,
			})
		}
	}
	return messages
}
