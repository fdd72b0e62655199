package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/marchholm/sage/pkg/logger"
)

// ErrStreamStopped marks a stream that ended because the caller cancelled
// it. It is not a failure: accumulated text remains valid.
var ErrStreamStopped = errors.New("stream stopped by caller")

// StreamEventType identifies the kind of a decoded stream event
type StreamEventType string

const (
	EventChunk          StreamEventType = "chunk"
	EventConversationID StreamEventType = "conversation_id"
	EventError          StreamEventType = "error"
	EventDone           StreamEventType = "done"
)

// StreamEvent is one typed event decoded from the SSE response body
type StreamEvent struct {
	Type           StreamEventType
	Content        string
	ConversationID int64
	Message        string
}

// streamPayload is the wire shape of one "data: " line
type streamPayload struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	ConversationID int64  `json:"conversation_id"`
	Message        string `json:"message"`
}

// conversationIDHeader is the fallback discovery path for a newly created
// conversation when the server sets it before the first body event
const conversationIDHeader = "X-Conversation-Id"

const dataPrefix = "data: "

// ChatStream is one in-flight streaming response. Events are yielded in
// arrival order on Events(); the channel closes when the logical stream
// ends. Err and Truncated are valid only after the channel has closed.
type ChatStream struct {
	events    chan StreamEvent
	err       error
	truncated bool
}

// Events returns the ordered event sequence for this stream
func (s *ChatStream) Events() <-chan StreamEvent {
	return s.events
}

// Err reports how the stream ended: nil for normal completion,
// ErrStreamStopped for caller cancellation, anything else for a transport
// failure
func (s *ChatStream) Err() error {
	return s.err
}

// Truncated reports whether the body ended without a done event and residual
// buffered text had to be flushed, which can mask a dropped connection
func (s *ChatStream) Truncated() bool {
	return s.truncated
}

// StreamChat opens one streaming chat request. Cancel ctx to abort the
// transfer; the decoder classifies that as a stop, not an error.
func (c *Client) StreamChat(ctx context.Context, req StreamRequest) (*ChatStream, error) {
	httpReq, err := c.newRequest(ctx, "POST", "/chat/stream", req)
	if err != nil {
		return nil, err
	}

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	stream := &ChatStream{
		events: make(chan StreamEvent, 64),
	}

	var headerID int64
	if v := resp.Header.Get(conversationIDHeader); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			headerID = id
		} else {
			logger.Warn("Ignoring malformed %s header: %q", conversationIDHeader, v)
		}
	}

	go stream.decode(ctx, resp.Body, headerID)

	return stream, nil
}

// decode reads the response body line by line and emits typed events.
// Partial lines are retained across reads; the final unterminated line is
// flushed as a chunk so a server that omits its done event loses no text.
func (s *ChatStream) decode(ctx context.Context, body io.ReadCloser, headerID int64) {
	defer close(s.events)
	defer body.Close()

	if headerID != 0 {
		s.emit(ctx, StreamEvent{Type: EventConversationID, ConversationID: headerID})
	}

	var pending []byte
	buf := make([]byte, 4096)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				line := string(pending[:i])
				pending = pending[i+1:]
				if done := s.handleLine(ctx, line); done {
					return
				}
			}
		}

		if readErr == nil {
			continue
		}

		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			// Guard against servers that drop the connection instead of
			// sending a done event
			if residual := strings.TrimSpace(string(pending)); residual != "" {
				s.truncated = true
				s.emit(ctx, StreamEvent{Type: EventChunk, Content: residual})
			}
			return
		}

		if ctx.Err() != nil {
			s.err = ErrStreamStopped
			return
		}

		s.err = readErr
		return
	}
}

// handleLine decodes one complete line. Returns true when the logical
// stream is finished.
func (s *ChatStream) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, dataPrefix) {
		return false
	}

	var payload streamPayload
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, dataPrefix)), &payload); err != nil {
		// Malformed payloads never abort the stream
		logger.Warn("Skipping malformed stream payload: %v", err)
		return false
	}

	switch StreamEventType(payload.Type) {
	case EventChunk:
		if payload.Content != "" {
			s.emit(ctx, StreamEvent{Type: EventChunk, Content: payload.Content})
		}
	case EventConversationID:
		if payload.ConversationID != 0 {
			s.emit(ctx, StreamEvent{Type: EventConversationID, ConversationID: payload.ConversationID})
		}
	case EventError:
		s.emit(ctx, StreamEvent{Type: EventError, Message: payload.Message})
		return true
	case EventDone:
		s.emit(ctx, StreamEvent{Type: EventDone})
		return true
	default:
		logger.Debug("Ignoring unknown stream event type %q", payload.Type)
	}

	return false
}

func (s *ChatStream) emit(ctx context.Context, ev StreamEvent) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
