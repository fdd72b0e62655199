package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marchholm/sage/pkg/api"
)

// sseHandler writes raw lines to the response, flushing after each one
func sseHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprint(w, line)
			flusher.Flush()
		}
	}
}

func collect(stream *api.ChatStream) []api.StreamEvent {
	var events []api.StreamEvent
	for ev := range stream.Events() {
		events = append(events, ev)
	}
	return events
}

var _ = Describe("StreamChat", func() {
	var (
		client *api.Client
		server *httptest.Server
	)

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	newStream := func() *api.ChatStream {
		client = api.NewClient(server.URL, "test-token")
		stream, err := client.StreamChat(context.Background(), api.StreamRequest{Message: "hello"})
		Expect(err).ToNot(HaveOccurred())
		return stream
	}

	It("should decode chunks, the conversation id, and the done event in order", func() {
		server = httptest.NewServer(sseHandler(
			"data: {\"type\": \"conversation_id\", \"conversation_id\": 42}\n",
			"data: {\"type\": \"chunk\", \"content\": \"A Merkle tree \"}\n",
			"data: {\"type\": \"chunk\", \"content\": \"is a hash \"}\n",
			"data: {\"type\": \"chunk\", \"content\": \"tree.\"}\n",
			"data: {\"type\": \"done\"}\n",
		))

		stream := newStream()
		events := collect(stream)

		Expect(stream.Err()).ToNot(HaveOccurred())
		Expect(stream.Truncated()).To(BeFalse())
		Expect(events).To(HaveLen(5))
		Expect(events[0].Type).To(Equal(api.EventConversationID))
		Expect(events[0].ConversationID).To(Equal(int64(42)))

		var text string
		for _, ev := range events[1:4] {
			Expect(ev.Type).To(Equal(api.EventChunk))
			text += ev.Content
		}
		Expect(text).To(Equal("A Merkle tree is a hash tree."))
		Expect(events[4].Type).To(Equal(api.EventDone))
	})

	It("should reassemble payloads split across reads", func() {
		server = httptest.NewServer(sseHandler(
			"data: {\"type\": \"chunk\", \"con",
			"tent\": \"hello\"}\ndata: {\"type\": \"done\"}\n",
		))

		events := collect(newStream())

		Expect(events).To(HaveLen(2))
		Expect(events[0].Content).To(Equal("hello"))
		Expect(events[1].Type).To(Equal(api.EventDone))
	})

	It("should take the conversation id from the response header when the body never carries one", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Conversation-Id", "17")
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"type\": \"chunk\", \"content\": \"hi\"}\n")
			fmt.Fprint(w, "data: {\"type\": \"done\"}\n")
		}))

		events := collect(newStream())

		Expect(events[0].Type).To(Equal(api.EventConversationID))
		Expect(events[0].ConversationID).To(Equal(int64(17)))
	})

	It("should skip malformed payloads without ending the stream", func() {
		server = httptest.NewServer(sseHandler(
			"data: {\"type\": \"chunk\", \"content\": \"before \"}\n",
			"data: {not valid json}\n",
			": comment line\n",
			"data: {\"type\": \"chunk\", \"content\": \"after\"}\n",
			"data: {\"type\": \"done\"}\n",
		))

		stream := newStream()
		events := collect(stream)

		Expect(stream.Err()).ToNot(HaveOccurred())
		Expect(events).To(HaveLen(3))
		Expect(events[0].Content).To(Equal("before "))
		Expect(events[1].Content).To(Equal("after"))
	})

	It("should flush residual text and flag truncation when the body ends without a done event", func() {
		server = httptest.NewServer(sseHandler(
			"data: {\"type\": \"chunk\", \"content\": \"partial \"}\n",
			"tail text without newline",
		))

		stream := newStream()
		events := collect(stream)

		Expect(stream.Err()).ToNot(HaveOccurred())
		Expect(stream.Truncated()).To(BeTrue())
		Expect(events).To(HaveLen(2))
		Expect(events[1].Type).To(Equal(api.EventChunk))
		Expect(events[1].Content).To(Equal("tail text without newline"))
	})

	It("should terminate on an error event and carry its message", func() {
		server = httptest.NewServer(sseHandler(
			"data: {\"type\": \"chunk\", \"content\": \"so far\"}\n",
			"data: {\"type\": \"error\", \"message\": \"model overloaded\"}\n",
			"data: {\"type\": \"chunk\", \"content\": \"never seen\"}\n",
		))

		stream := newStream()
		events := collect(stream)

		Expect(stream.Err()).ToNot(HaveOccurred())
		Expect(events).To(HaveLen(2))
		Expect(events[1].Type).To(Equal(api.EventError))
		Expect(events[1].Message).To(Equal("model overloaded"))
	})

	It("should classify caller cancellation as a stop rather than a failure", func() {
		release := make(chan struct{})
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			fmt.Fprint(w, "data: {\"type\": \"chunk\", \"content\": \"streamed \"}\n")
			flusher.Flush()
			<-release
		}))
		defer close(release)

		client = api.NewClient(server.URL, "test-token")
		ctx, cancel := context.WithCancel(context.Background())
		stream, err := client.StreamChat(ctx, api.StreamRequest{Message: "hello"})
		Expect(err).ToNot(HaveOccurred())

		Eventually(stream.Events()).Should(Receive())
		cancel()

		Eventually(stream.Events()).Should(BeClosed())
		Expect(stream.Err()).To(MatchError(api.ErrStreamStopped))
	})

	It("should decode the error body of a failed request before any stream exists", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"detail": "rate limit exceeded"}`))
		}))
		client = api.NewClient(server.URL, "test-token")

		stream, err := client.StreamChat(context.Background(), api.StreamRequest{Message: "hello"})

		Expect(stream).To(BeNil())
		Expect(err).To(MatchError(ContainSubstring("rate limit exceeded")))
	})
})
