package controllers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/marchholm/sage/pkg/api"
	"github.com/marchholm/sage/pkg/chat"
	"github.com/marchholm/sage/pkg/logger"
)

var (
	ErrEmptyMessage = errors.New("message content cannot be empty")
	ErrStreamActive = errors.New("a stream is already active")
)

// genericStreamError is surfaced when the server reports a failure without
// a usable message
const genericStreamError = "The assistant encountered an error."

// stopGracePeriod debounces the stop control. Purely cosmetic; correctness
// comes from context cancellation.
const stopGracePeriod = 200 * time.Millisecond

// ConversationAPI is the slice of the API client the controller drives
type ConversationAPI interface {
	StreamChat(ctx context.Context, req api.StreamRequest) (*api.ChatStream, error)
	GetConversation(ctx context.Context, id int64) (*api.ConversationDetail, error)
	LatestConversation(ctx context.Context) (*api.ConversationDetail, error)
}

// AttachmentSource supplies confirmed attachment ids for an outgoing
// message and is cleared once the exchange finalizes
type AttachmentSource interface {
	IDs() []int64
	ClearAll()
}

// Hooks are the push-only side effects of the controller. They never
// mutate controller state; hosts repaint from them.
type Hooks struct {
	OnChunk              func(content string)
	OnError              func(message string)
	OnComplete           func(finalText string)
	OnConversationChange func(id *int64)
}

// ChatController owns one conversation session: the optimistic transcript,
// the single tracked conversation identifier, and at most one in-flight
// stream. The identifier lives in exactly one field, read under the lock,
// so no second copy can drift.
type ChatController struct {
	client      ConversationAPI
	transcript  *chat.Transcript
	attachments AttachmentSource
	hooks       Hooks

	model        string
	facilityType string

	mu             sync.Mutex
	conversationID *int64
	state          chat.StreamState
	cancel         context.CancelFunc
	stopping       bool
	loadedLatest   bool
	lastError      string
	lastTruncated  bool
}

// NewChatController creates a controller for the given API client and model
func NewChatController(client ConversationAPI, model string) *ChatController {
	return &ChatController{
		client:     client,
		transcript: chat.NewTranscript(),
		model:      model,
		state:      chat.StateIdle,
	}
}

// SetFacilityType sets the optional facility context sent with requests
func (cc *ChatController) SetFacilityType(facilityType string) {
	cc.facilityType = facilityType
}

// SetAttachments wires an attachment source into outgoing requests
func (cc *ChatController) SetAttachments(src AttachmentSource) {
	cc.attachments = src
}

// SetHooks installs the host's side-effect callbacks
func (cc *ChatController) SetHooks(hooks Hooks) {
	cc.hooks = hooks
}

// Transcript returns the controller's transcript
func (cc *ChatController) Transcript() *chat.Transcript {
	return cc.transcript
}

// State returns the current stream state
func (cc *ChatController) State() chat.StreamState {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.state
}

// ConversationID returns a copy of the tracked conversation identifier,
// nil while no conversation exists yet
func (cc *ChatController) ConversationID() *int64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.conversationID == nil {
		return nil
	}
	id := *cc.conversationID
	return &id
}

// LastError returns the currently surfaced error message, empty when none
func (cc *ChatController) LastError() string {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lastError
}

// LastTruncated reports whether the most recent response ended without a
// done event and was assembled from flushed residual text
func (cc *ChatController) LastTruncated() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lastTruncated
}

// Send runs one full exchange: optimistic append, streaming request, chunk
// accumulation, finalization, post-completion refresh. It blocks until the
// stream ends; hosts run it on their own goroutine. A second Send while a
// stream is active is a no-op returning ErrStreamActive.
func (cc *ChatController) Send(prompt string) error {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	cc.mu.Lock()
	if !cc.state.CanSend() {
		cc.mu.Unlock()
		return ErrStreamActive
	}
	ctx, cancel := context.WithCancel(context.Background())
	cc.state = chat.StateSending
	cc.cancel = cancel
	cc.lastError = ""
	cc.lastTruncated = false
	convID := cc.conversationID
	cc.mu.Unlock()

	defer func() {
		cancel()
		cc.mu.Lock()
		cc.cancel = nil
		cc.state = chat.StateIdle
		cc.mu.Unlock()
	}()

	// Optimistic transcript: the user turn first, then the placeholder the
	// chunks land in. History is built in between so it includes the new
	// user message but not the placeholder.
	cc.transcript.Append(chat.NewUserMessage(trimmed))
	history := cc.transcript.History()
	if _, err := cc.transcript.AppendStreaming(); err != nil {
		return err
	}

	req := api.StreamRequest{
		Message:        trimmed,
		ConversationID: convID,
		Context: api.StreamContext{
			MessageHistory: toPayload(history),
			Model:          cc.model,
			FacilityType:   cc.facilityType,
		},
	}
	if cc.attachments != nil {
		req.AttachmentIDs = cc.attachments.IDs()
	}

	stream, err := cc.client.StreamChat(ctx, req)
	if err != nil {
		cc.failStream(err.Error())
		return err
	}

	cc.setState(chat.StateStreaming)

	var serverError string
	for ev := range stream.Events() {
		switch ev.Type {
		case api.EventChunk:
			if err := cc.transcript.AppendChunk(ev.Content); err != nil {
				logger.Error("Dropping chunk: %v", err)
				continue
			}
			if cc.hooks.OnChunk != nil {
				cc.hooks.OnChunk(ev.Content)
			}
		case api.EventConversationID:
			cc.adoptConversation(ev.ConversationID)
		case api.EventError:
			serverError = ev.Message
			if serverError == "" {
				serverError = genericStreamError
			}
		case api.EventDone:
			// Normal termination; the event channel closes next
		}
	}

	if serverError != "" {
		cc.failStream(serverError)
		return errors.New(serverError)
	}

	switch streamErr := stream.Err(); {
	case errors.Is(streamErr, api.ErrStreamStopped):
		// User stop, not an error: keep whatever arrived
		partial := cc.transcript.StreamingText()
		cc.transcript.Finalize(partial)
		cc.setState(chat.StateCancelled)
		if cc.hooks.OnComplete != nil {
			cc.hooks.OnComplete(partial)
		}
		return nil
	case streamErr != nil:
		cc.failStream(streamErr.Error())
		return streamErr
	}

	cc.setState(chat.StateFinalizing)

	final := cc.transcript.StreamingText()
	cc.transcript.Finalize(final)

	cc.mu.Lock()
	cc.lastTruncated = stream.Truncated()
	refreshID := cc.conversationID
	cc.mu.Unlock()
	if stream.Truncated() {
		logger.Warn("Stream ended without a done event; response may be incomplete")
	}

	if cc.hooks.OnComplete != nil {
		cc.hooks.OnComplete(final)
	}

	// Reconcile: the server record is authoritative once the exchange is
	// persisted (titles, moderation, normalization)
	if refreshID != nil {
		if err := cc.refreshConversation(*refreshID); err != nil {
			logger.Warn("Unable to refresh conversation %d: %v", *refreshID, err)
		}
	}

	if cc.attachments != nil {
		cc.attachments.ClearAll()
	}

	return nil
}

// Stop aborts the in-flight stream. The placeholder is finalized with the
// text accumulated so far. Repeated stops within the grace period are
// ignored.
func (cc *ChatController) Stop() {
	cc.mu.Lock()
	if cc.cancel == nil || cc.stopping {
		cc.mu.Unlock()
		return
	}
	cc.stopping = true
	cancel := cc.cancel
	cc.mu.Unlock()

	cancel()

	time.AfterFunc(stopGracePeriod, func() {
		cc.mu.Lock()
		cc.stopping = false
		cc.mu.Unlock()
	})
}

// Stopping reports whether the stop control is inside its grace period
func (cc *ChatController) Stopping() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.stopping
}

// SelectConversation switches to an externally chosen conversation,
// replacing the whole transcript with the server record. A fetch failure
// surfaces an error but leaves the current transcript alone.
func (cc *ChatController) SelectConversation(id int64) error {
	cc.mu.Lock()
	if cc.conversationID != nil && *cc.conversationID == id {
		cc.mu.Unlock()
		return nil
	}
	cc.mu.Unlock()

	if err := cc.refreshConversation(id); err != nil {
		logger.Warn("Unable to load conversation %d: %v", id, err)
		cc.surfaceError("Unable to load the requested conversation.")
		return err
	}
	return nil
}

// LoadLatest adopts the most recently updated conversation. It runs at
// most once per controller and is skipped when a conversation is already
// tracked. Failure is logged, never surfaced.
func (cc *ChatController) LoadLatest() error {
	cc.mu.Lock()
	if cc.loadedLatest || cc.conversationID != nil {
		cc.mu.Unlock()
		return nil
	}
	cc.loadedLatest = true
	cc.mu.Unlock()

	latest, err := cc.client.LatestConversation(context.Background())
	if err != nil {
		logger.Warn("Unable to load latest conversation: %v", err)
		return err
	}
	if latest == nil {
		return nil
	}

	cc.adoptRecord(latest)
	return nil
}

// NewChat aborts any in-flight stream and resets to a fresh, unsaved
// conversation. The host is notified with a nil identifier.
func (cc *ChatController) NewChat() {
	cc.mu.Lock()
	if cc.cancel != nil {
		cc.cancel()
	}
	cc.conversationID = nil
	cc.lastError = ""
	cc.mu.Unlock()

	cc.transcript.Clear()

	if cc.hooks.OnConversationChange != nil {
		cc.hooks.OnConversationChange(nil)
	}
}

// refreshConversation replaces the local transcript with the server's
// record of the given conversation and adopts its resolved identifier
func (cc *ChatController) refreshConversation(id int64) error {
	detail, err := cc.client.GetConversation(context.Background(), id)
	if err != nil {
		return err
	}
	cc.adoptRecord(detail)
	return nil
}

func (cc *ChatController) adoptRecord(detail *api.ConversationDetail) {
	cc.transcript.ReplaceAll(chat.MessagesFromRecord(detail))
	cc.adoptConversation(detail.ResolvedID())
}

// adoptConversation makes id the tracked conversation. Adoption is
// synchronous with the event that carried the id, so the next Send in the
// same session already references it.
func (cc *ChatController) adoptConversation(id int64) {
	cc.mu.Lock()
	if cc.conversationID != nil && *cc.conversationID == id {
		cc.mu.Unlock()
		return
	}
	cc.conversationID = &id
	cc.mu.Unlock()

	if cc.hooks.OnConversationChange != nil {
		changed := id
		cc.hooks.OnConversationChange(&changed)
	}
}

// failStream finalizes the placeholder with empty text and surfaces the
// failure. Used for transport errors and server error events alike.
func (cc *ChatController) failStream(message string) {
	cc.transcript.Finalize("")
	cc.setState(chat.StateErrored)
	cc.surfaceError(message)
}

func (cc *ChatController) surfaceError(message string) {
	cc.mu.Lock()
	cc.lastError = message
	cc.mu.Unlock()

	if cc.hooks.OnError != nil {
		cc.hooks.OnError(message)
	}
}

func (cc *ChatController) setState(state chat.StreamState) {
	cc.mu.Lock()
	cc.state = state
	cc.mu.Unlock()
}

func toPayload(history []chat.HistoryEntry) []api.MessagePayload {
	payload := make([]api.MessagePayload, len(history))
	for i, entry := range history {
		payload[i] = api.MessagePayload{Role: entry.Role, Content: entry.Content}
	}
	return payload
}
