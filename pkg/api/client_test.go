package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marchholm/sage/pkg/api"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Client", func() {
	var (
		client *api.Client
		server *httptest.Server
	)

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	Describe("ListConversations", func() {
		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/conversations"))
				Expect(r.URL.Query().Get("limit")).To(Equal("20"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-token"))

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"conversations": [
						{
							"conversation_id": 7,
							"title": "Fire safety refresher",
							"last_message_at": "2025-03-02T10:15:00Z",
							"message_count": 4,
							"created_at": "2025-03-01T09:00:00Z"
						},
						{
							"conversation_id": 3,
							"title": null,
							"message_count": 2,
							"created_at": "2025-02-20T08:30:00Z"
						}
					],
					"total": 2
				}`))
			}))
			client = api.NewClient(server.URL, "test-token")
		})

		It("should return conversations most recent first", func() {
			list, err := client.ListConversations(context.Background(), 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(list.Conversations).To(HaveLen(2))
			Expect(list.Conversations[0].ConversationID).To(Equal(int64(7)))
			Expect(*list.Conversations[0].Title).To(Equal("Fire safety refresher"))
			Expect(list.Conversations[1].Title).To(BeNil())
			Expect(list.Total).To(Equal(2))
		})
	})

	Describe("GetConversation", func() {
		It("should resolve the identifier from the id field when conversation_id is absent", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/conversations/12"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"id": 12,
					"created_at": "2025-03-01T09:00:00Z",
					"message_count": 1,
					"messages": [
						{
							"id": 100,
							"user_id": 1,
							"message": "What is a lockout procedure?",
							"response": "A lockout procedure isolates energy sources.",
							"conversation_id": 12,
							"created_at": "2025-03-01T09:00:00Z"
						}
					]
				}`))
			}))
			client = api.NewClient(server.URL, "test-token")

			detail, err := client.GetConversation(context.Background(), 12)

			Expect(err).ToNot(HaveOccurred())
			Expect(detail.ResolvedID()).To(Equal(int64(12)))
			Expect(detail.Messages).To(HaveLen(1))
			Expect(*detail.Messages[0].Response).To(ContainSubstring("isolates energy"))
		})
	})

	Describe("LatestConversation", func() {
		It("should return nil without error when the caller has no conversations", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"conversations": [], "total": 0}`))
			}))
			client = api.NewClient(server.URL, "test-token")

			latest, err := client.LatestConversation(context.Background())

			Expect(err).ToNot(HaveOccurred())
			Expect(latest).To(BeNil())
		})

		It("should fetch the full record of the most recent conversation", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				switch r.URL.Path {
				case "/conversations":
					w.Write([]byte(`{"conversations": [{"conversation_id": 42, "message_count": 3, "created_at": "2025-03-01T09:00:00Z"}], "total": 5}`))
				case "/conversations/42":
					w.Write([]byte(`{"conversation_id": 42, "created_at": "2025-03-01T09:00:00Z", "message_count": 3, "messages": []}`))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			client = api.NewClient(server.URL, "test-token")

			latest, err := client.LatestConversation(context.Background())

			Expect(err).ToNot(HaveOccurred())
			Expect(latest).ToNot(BeNil())
			Expect(latest.ResolvedID()).To(Equal(int64(42)))
		})
	})

	Describe("SendChat", func() {
		It("should post the message and decode the persisted exchange", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal("POST"))
				Expect(r.URL.Path).To(Equal("/chat"))

				var req api.ChatMessageCreate
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req.Message).To(Equal("hello"))

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"id": 9,
					"user_id": 1,
					"message": "hello",
					"response": "Hi there!",
					"conversation_id": 5,
					"created_at": "2025-03-01T09:00:00Z"
				}`))
			}))
			client = api.NewClient(server.URL, "test-token")

			record, err := client.SendChat(context.Background(), api.ChatMessageCreate{Message: "hello"})

			Expect(err).ToNot(HaveOccurred())
			Expect(*record.Response).To(Equal("Hi there!"))
			Expect(*record.ConversationID).To(Equal(int64(5)))
		})
	})

	Describe("Error responses", func() {
		It("should surface the detail field of a structured error body", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "Invalid or expired token"}`))
			}))
			client = api.NewClient(server.URL, "bad-token")

			_, err := client.ListConversations(context.Background(), 10, 0)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 401"))
			Expect(err.Error()).To(ContainSubstring("Invalid or expired token"))
		})

		It("should fall back to the raw body for unstructured errors", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`upstream unavailable`))
			}))
			client = api.NewClient(server.URL, "test-token")

			_, err := client.ListConversations(context.Background(), 10, 0)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 502"))
			Expect(err.Error()).To(ContainSubstring("upstream unavailable"))
		})
	})

	Describe("Documents", func() {
		var hits int

		BeforeEach(func() {
			hits = 0
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/documents/list"))
				hits++
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"documents": [
						{"id": 1, "title": "Evacuation plan", "category": "safety", "updated_at": "2025-02-01T00:00:00Z"}
					],
					"total": 1
				}`))
			}))
			client = api.NewClient(server.URL, "test-token")
		})

		It("should serve repeat reads from the cache", func() {
			first, err := client.ListDocuments(context.Background(), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(first).To(HaveLen(1))

			second, err := client.ListDocuments(context.Background(), false)
			Expect(err).ToNot(HaveOccurred())
			Expect(second).To(HaveLen(1))

			Expect(hits).To(Equal(1))
		})

		It("should bypass the cache when forced", func() {
			_, err := client.ListDocuments(context.Background(), false)
			Expect(err).ToNot(HaveOccurred())

			_, err = client.ListDocuments(context.Background(), true)
			Expect(err).ToNot(HaveOccurred())

			Expect(hits).To(Equal(2))
		})

		It("should build download links carrying the token", func() {
			url := client.DocumentDownloadURL(14)
			Expect(url).To(Equal(server.URL + "/documents/download/14?token=test-token"))
		})
	})
})
