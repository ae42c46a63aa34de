package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/workflow"
)

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		status int
		reply  string
		delay  time.Duration
		bodies chan map[string]any
		client workflow.Client
		ctx    context.Context
		stamp  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		reply = `{}`
		delay = 0
		bodies = make(chan map[string]any, 2)
		stamp = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			var body map[string]any
			_ = json.Unmarshal(raw, &body)
			body["_path"] = r.URL.Path
			bodies <- body

			time.Sleep(delay)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))

		client = workflow.NewClient(workflow.Config{
			AgentResponseURL: server.URL + "/webhook/agent-response",
			AddDocumentsURL:  server.URL + "/webhook/add-documents",
			ForwardURL:       server.URL + "/webhook/forward",
			Timeout:          200 * time.Millisecond,
		})
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("AgentResponse", func() {
		It("posts the request shape n8n expects", func() {
			reply = `{"response": "You get 15 days."}`

			got, err := client.AgentResponse(ctx, workflow.AgentResponseRequest{
				Text:                "What is the PTO policy?",
				AgentID:             "42",
				Context:             map[string]any{"source": "voice"},
				ConversationHistory: "Previous conversations:\nuser: hi\n",
				Timestamp:           stamp,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Text("fallback")).To(Equal("You get 15 days."))
			Expect(string(got.Raw)).To(MatchJSON(reply))

			var body map[string]any
			Eventually(bodies).Should(Receive(&body))
			Expect(body["_path"]).To(Equal("/webhook/agent-response"))
			Expect(body["text"]).To(Equal("What is the PTO policy?"))
			Expect(body["agentId"]).To(Equal("42"))
			Expect(body["conversationHistory"]).To(HavePrefix("Previous conversations:"))
			Expect(body["timestamp"]).To(Equal("2025-03-01T09:30:00Z"))
		})

		It("falls back to message, then the given default", func() {
			reply = `{"message": "Handled."}`
			got, err := client.AgentResponse(ctx, workflow.AgentResponseRequest{Text: "x"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Text("fallback")).To(Equal("Handled."))

			reply = `{"status": "ok"}`
			got, err = client.AgentResponse(ctx, workflow.AgentResponseRequest{Text: "x"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Text("fallback")).To(Equal("fallback"))
		})

		It("unwraps array responses", func() {
			reply = `[{"response": "From the first item"}]`

			got, err := client.AgentResponse(ctx, workflow.AgentResponseRequest{Text: "x"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Text("")).To(Equal("From the first item"))
		})

		It("treats non-2xx as an error", func() {
			status = http.StatusBadGateway
			reply = `upstream down`

			_, err := client.AgentResponse(ctx, workflow.AgentResponseRequest{Text: "x"})

			var statusErr *workflow.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.StatusCode).To(Equal(http.StatusBadGateway))
		})

		It("treats a non-JSON body as an error", func() {
			reply = `<html>oops</html>`

			_, err := client.AgentResponse(ctx, workflow.AgentResponseRequest{Text: "x"})
			Expect(err).To(MatchError(ContainSubstring("decoding response")))
		})

		It("gives up after the timeout", func() {
			delay = time.Second

			_, err := client.AgentResponse(ctx, workflow.AgentResponseRequest{Text: "x"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("AddDocument", func() {
		It("forwards the document verbatim", func() {
			reply = `{"response": "Stored."}`

			got, err := client.AddDocument(ctx, workflow.AddDocumentRequest{
				Document:  json.RawMessage(`{"title": "Handbook"}`),
				AgentID:   "42",
				Timestamp: stamp,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Response).To(Equal("Stored."))

			var body map[string]any
			Eventually(bodies).Should(Receive(&body))
			Expect(body["_path"]).To(Equal("/webhook/add-documents"))
			Expect(body["document"]).To(HaveKeyWithValue("title", "Handbook"))
		})
	})

	Describe("Forward", func() {
		It("keeps metadata", func() {
			reply = `{"response": "On it.", "metadata": {"workflow": "pto"}}`

			got, err := client.Forward(ctx, workflow.ForwardRequest{UserMessage: "hi", ConversationID: "7", Timestamp: stamp})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(got.Metadata)).To(MatchJSON(`{"workflow": "pto"}`))
		})
	})

	It("reports unconfigured endpoints", func() {
		bare := workflow.NewClient(workflow.Config{})

		_, err := bare.AgentResponse(ctx, workflow.AgentResponseRequest{Text: "x"})
		Expect(err).To(MatchError(workflow.ErrNotConfigured))
	})
})
