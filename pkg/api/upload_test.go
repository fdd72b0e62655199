package api_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marchholm/sage/pkg/api"
)

var _ = Describe("UploadDocument", func() {
	var (
		client *api.Client
		server *httptest.Server
	)

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("should post the file as multipart form data", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/documents/upload"))
			Expect(r.Header.Get("Content-Type")).To(HavePrefix("multipart/form-data"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-token"))

			file, header, err := r.FormFile("file")
			Expect(err).ToNot(HaveOccurred())
			defer file.Close()

			Expect(header.Filename).To(Equal("diagram.png"))
			content, err := io.ReadAll(file)
			Expect(err).ToNot(HaveOccurred())
			Expect(content).To(Equal([]byte("fake image bytes")))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": 88, "title": "diagram.png", "category": "uploads"}`))
		}))
		client = api.NewClient(server.URL, "test-token")

		uploaded, err := client.UploadDocument(context.Background(), "diagram.png", strings.NewReader("fake image bytes"), nil)

		Expect(err).ToNot(HaveOccurred())
		Expect(uploaded.ID).To(Equal(int64(88)))
		Expect(uploaded.Title).To(Equal("diagram.png"))
	})

	It("should report progress up to the full body size", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": 1, "title": "big.png", "category": "uploads"}`))
		}))
		client = api.NewClient(server.URL, "test-token")

		var lastSent, total int64
		progress := func(s, t int64) {
			lastSent = s
			total = t
		}

		payload := bytes.Repeat([]byte("x"), 64*1024)
		_, err := client.UploadDocument(context.Background(), "big.png", bytes.NewReader(payload), progress)

		Expect(err).ToNot(HaveOccurred())
		Expect(total).To(BeNumerically(">", int64(len(payload))))
		Expect(lastSent).To(Equal(total))
	})

	It("should surface a structured server rejection", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			w.Write([]byte(`{"detail": "file exceeds upload limit"}`))
		}))
		client = api.NewClient(server.URL, "test-token")

		_, err := client.UploadDocument(context.Background(), "big.png", strings.NewReader("data"), nil)

		Expect(err).To(MatchError(ContainSubstring("file exceeds upload limit")))
	})
})
