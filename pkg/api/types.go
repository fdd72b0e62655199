package api

import "time"

// MessagePayload is one role/content pair of prior history sent with a
// streaming request
type MessagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamContext carries conversation history and model selection
type StreamContext struct {
	MessageHistory []MessagePayload `json:"message_history"`
	Model          string           `json:"model"`
	FacilityType   string           `json:"facility_type,omitempty"`
}

// StreamRequest is the body of POST /chat/stream
type StreamRequest struct {
	Message        string        `json:"message"`
	ConversationID *int64        `json:"conversation_id"`
	Context        StreamContext `json:"context"`
	AttachmentIDs  []int64       `json:"attachment_ids,omitempty"`
}

// ChatMessageCreate is the body of the non-streaming POST /chat
type ChatMessageCreate struct {
	Message        string         `json:"message"`
	ConversationID *int64         `json:"conversation_id,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
}

// ChatMessageRecord is one persisted exchange: the user message plus the
// assistant response once one exists
type ChatMessageRecord struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Message        string    `json:"message"`
	Response       *string   `json:"response"`
	ConversationID *int64    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatHistoryResponse is the result of GET /chat/history
type ChatHistoryResponse struct {
	Messages []ChatMessageRecord `json:"messages"`
	Total    int                 `json:"total"`
}

// ConversationSummary is one entry of the conversation list
type ConversationSummary struct {
	ConversationID int64      `json:"conversation_id"`
	Title          *string    `json:"title"`
	LastMessageAt  *time.Time `json:"last_message_at"`
	MessageCount   int        `json:"message_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConversationListResponse is the result of GET /conversations
type ConversationListResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
}

// ConversationDetail is the full server record of one conversation.
// Some deployments return the identifier as "id" instead of
// "conversation_id"; ResolvedID papers over that.
type ConversationDetail struct {
	ConversationID int64               `json:"conversation_id"`
	ID             int64               `json:"id"`
	Title          *string             `json:"title"`
	CreatedAt      time.Time           `json:"created_at"`
	LastMessageAt  *time.Time          `json:"last_message_at"`
	MessageCount   int                 `json:"message_count"`
	Messages       []ChatMessageRecord `json:"messages"`
}

// ResolvedID returns the conversation identifier regardless of which
// field the server populated
func (d *ConversationDetail) ResolvedID() int64 {
	if d.ConversationID != 0 {
		return d.ConversationID
	}
	return d.ID
}

// Document is one entry of the reference document list
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	UpdatedAt time.Time `json:"updated_at"`
	Tags      []string  `json:"tags,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Type      string    `json:"type,omitempty"`
}

// DocumentListResponse is the result of GET /documents/list
type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// DocumentUploadResponse is the result of POST /documents/upload
type DocumentUploadResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Type     string `json:"type,omitempty"`
}
