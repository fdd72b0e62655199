package api

import (
	"context"
	"fmt"
)

// SendChat sends a message over the non-streaming endpoint and returns the
// persisted exchange once the assistant has answered
func (c *Client) SendChat(ctx context.Context, req ChatMessageCreate) (*ChatMessageRecord, error) {
	var record ChatMessageRecord
	if err := c.doJSON(ctx, "POST", "/chat", req, &record); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &record, nil
}

// GetHistory fetches recent exchanges, optionally scoped to one conversation
func (c *Client) GetHistory(ctx context.Context, limit int, conversationID *int64) (*ChatHistoryResponse, error) {
	path := fmt.Sprintf("/chat/history?limit=%d", limit)
	if conversationID != nil {
		path += fmt.Sprintf("&conversation_id=%d", *conversationID)
	}

	var history ChatHistoryResponse
	if err := c.doJSON(ctx, "GET", path, nil, &history); err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}
	return &history, nil
}

// GetConversation fetches the full record of one conversation
func (c *Client) GetConversation(ctx context.Context, id int64) (*ConversationDetail, error) {
	var detail ConversationDetail
	if err := c.doJSON(ctx, "GET", fmt.Sprintf("/conversations/%d", id), nil, &detail); err != nil {
		return nil, fmt.Errorf("failed to fetch conversation %d: %w", id, err)
	}
	if detail.ConversationID == 0 {
		detail.ConversationID = detail.ID
	}
	if detail.ConversationID == 0 {
		detail.ConversationID = id
	}
	return &detail, nil
}

// ListConversations fetches a page of the caller's conversations, most
// recently updated first
func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*ConversationListResponse, error) {
	path := fmt.Sprintf("/conversations?limit=%d&offset=%d", limit, offset)

	var list ConversationListResponse
	if err := c.doJSON(ctx, "GET", path, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return &list, nil
}

// LatestConversation fetches the most recently updated conversation, or nil
// when the caller has none
func (c *Client) LatestConversation(ctx context.Context) (*ConversationDetail, error) {
	list, err := c.ListConversations(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(list.Conversations) == 0 {
		return nil, nil
	}
	return c.GetConversation(ctx, list.Conversations[0].ConversationID)
}

// DeleteConversation removes a conversation and its messages
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, "DELETE", fmt.Sprintf("/conversations/%d", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete conversation %d: %w", id, err)
	}
	return nil
}

// UpdateConversationTitle renames a conversation
func (c *Client) UpdateConversationTitle(ctx context.Context, id int64, title string) (*ConversationSummary, error) {
	body := map[string]string{"title": title}

	var summary ConversationSummary
	if err := c.doJSON(ctx, "PATCH", fmt.Sprintf("/conversations/%d/title", id), body, &summary); err != nil {
		return nil, fmt.Errorf("failed to update conversation title: %w", err)
	}
	return &summary, nil
}
