package chat

import (
	"fmt"
	"sync"
)

// Transcript is the ordered local view of a conversation. It guards the
// invariant that at most one message streams at a time, and that message is
// always the most recently appended assistant entry.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a finalized message to the end of the transcript
func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg.IsStreaming = false
	t.messages = append(t.messages, msg)
}

// AppendStreaming appends the placeholder that receives chunks and returns
// its id. Fails when another message is already streaming.
func (t *Transcript) AppendStreaming() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streamingIndex() >= 0 {
		return "", fmt.Errorf("a message is already streaming")
	}

	placeholder := NewStreamingPlaceholder()
	t.messages = append(t.messages, placeholder)
	return placeholder.ID, nil
}

// AppendChunk adds incremental text to the streaming placeholder
func (t *Transcript) AppendChunk(content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.streamingIndex()
	if i < 0 {
		return fmt.Errorf("no active stream")
	}

	t.messages[i].Text += content
	return nil
}

// Finalize ends the streaming placeholder, replacing its text. Pass the
// accumulated text to keep a cancelled response, or empty text after a
// server error.
func (t *Transcript) Finalize(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.streamingIndex()
	if i < 0 {
		return fmt.Errorf("no active stream")
	}

	t.messages[i].Text = text
	t.messages[i].IsStreaming = false
	return nil
}

// StreamingText returns the text accumulated so far on the placeholder
func (t *Transcript) StreamingText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i := t.streamingIndex()
	if i < 0 {
		return ""
	}
	return t.messages[i].Text
}

// IsStreaming reports whether a placeholder is currently receiving chunks
func (t *Transcript) IsStreaming() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.streamingIndex() >= 0
}

// ReplaceAll swaps the whole transcript for the server's authoritative
// record
func (t *Transcript) ReplaceAll(messages []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	replaced := make([]Message, len(messages))
	copy(replaced, messages)
	t.messages = replaced
}

// Clear removes every message
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// Messages returns a copy of the transcript in order
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Message, len(t.messages))
	copy(result, t.messages)
	return result
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// History maps the transcript to role/content pairs for an outgoing
// request: user messages keep their role, everything else is treated as
// assistant context. The streaming placeholder is excluded.
func (t *Transcript) History() []HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	history := make([]HistoryEntry, 0, len(t.messages))
	for _, msg := range t.messages {
		if msg.IsStreaming {
			continue
		}
		role := "assistant"
		if msg.IsUser() {
			role = "user"
		}
		history = append(history, HistoryEntry{Role: role, Content: msg.Text})
	}
	return history
}

// HistoryEntry is one role/content pair of outgoing message history
type HistoryEntry struct {
	Role    string
	Content string
}

// streamingIndex returns the index of the streaming message, or -1.
// Callers hold the lock. Scanning from the tail is enough: the placeholder
// is always the newest assistant entry.
func (t *Transcript) streamingIndex() int {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].IsStreaming {
			return i
		}
	}
	return -1
}
