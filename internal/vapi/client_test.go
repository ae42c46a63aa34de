package vapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/vapi"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		requests chan recordedRequest
		status   int
		reply    string
		client   vapi.Client
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		requests = make(chan recordedRequest, 4)
		status = http.StatusOK
		reply = `{}`

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := recordedRequest{method: r.Method, path: r.URL.RequestURI(), auth: r.Header.Get("Authorization")}
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &rec.body)
			}
			requests <- rec

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))

		var err error
		client, err = vapi.NewClient(vapi.Config{BaseURL: server.URL, SecretKey: "sk_test"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires a secret key", func() {
		_, err := vapi.NewClient(vapi.Config{})
		Expect(err).To(HaveOccurred())
	})

	Describe("CreateAssistant", func() {
		It("posts the assistant with bearer auth and returns the remote id", func() {
			reply = `{"id": "asst_123", "name": "Benefits Buddy"}`

			created, err := client.CreateAssistant(ctx, vapi.BuildAssistant(vapi.AssistantSpec{
				Name:         "Benefits Buddy",
				FirstMessage: "Hi!",
				SystemPrompt: "You are Benefits Buddy.",
				ServerURL:    "https://app.example.com/api/v1/vapi/webhook/42",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(Equal("asst_123"))

			var req recordedRequest
			Eventually(requests).Should(Receive(&req))
			Expect(req.method).To(Equal(http.MethodPost))
			Expect(req.path).To(Equal("/assistant"))
			Expect(req.auth).To(Equal("Bearer sk_test"))
			Expect(req.body["firstMessage"]).To(Equal("Hi!"))
			Expect(req.body["serverUrl"]).To(Equal("https://app.example.com/api/v1/vapi/webhook/42"))
			Expect(req.body["silenceTimeoutSeconds"]).To(BeNumerically("==", 30))

			model := req.body["model"].(map[string]any)
			Expect(model["model"]).To(Equal("gpt-4"))
			functions := model["functions"].([]any)
			Expect(functions).To(HaveLen(1))
			Expect(functions[0].(map[string]any)["name"]).To(Equal("processWithN8N"))
		})

		It("fails when the response carries no id", func() {
			_, err := client.CreateAssistant(ctx, vapi.Assistant{Name: "x"})
			Expect(err).To(MatchError(ContainSubstring("no id")))
		})

		It("surfaces API errors", func() {
			status = http.StatusBadRequest
			reply = `{"message": "bad voice"}`

			_, err := client.CreateAssistant(ctx, vapi.Assistant{Name: "x"})

			var apiErr *vapi.APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(apiErr.Body).To(ContainSubstring("bad voice"))
		})
	})

	Describe("GetAssistant", func() {
		It("maps 404 to ErrAssistantNotFound", func() {
			status = http.StatusNotFound
			reply = `{"message": "Not Found"}`

			_, err := client.GetAssistant(ctx, "asst_gone")
			Expect(err).To(MatchError(vapi.ErrAssistantNotFound))
		})
	})

	Describe("UpdateAssistant", func() {
		It("patches only the model section", func() {
			reply = `{"id": "asst_1", "model": {"provider": "openai", "model": "gpt-4", "messages": [{"role": "system", "content": "new"}]}}`

			updated, err := client.UpdateAssistant(ctx, "asst_1", vapi.AssistantUpdate{Model: vapi.BuildModel("new")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.SystemPrompt()).To(Equal("new"))

			var req recordedRequest
			Eventually(requests).Should(Receive(&req))
			Expect(req.method).To(Equal(http.MethodPatch))
			Expect(req.path).To(Equal("/assistant/asst_1"))
			Expect(req.body).To(HaveKey("model"))
			Expect(req.body).NotTo(HaveKey("name"))
		})
	})

	Describe("DeleteAssistant", func() {
		It("issues a DELETE", func() {
			Expect(client.DeleteAssistant(ctx, "asst_1")).To(Succeed())

			var req recordedRequest
			Eventually(requests).Should(Receive(&req))
			Expect(req.method).To(Equal(http.MethodDelete))
		})
	})

	Describe("ListAssistants", func() {
		It("passes the limit", func() {
			reply = `[{"id": "a"}, {"id": "b"}]`

			assistants, err := client.ListAssistants(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(assistants).To(HaveLen(2))

			var req recordedRequest
			Eventually(requests).Should(Receive(&req))
			Expect(req.path).To(Equal("/assistant?limit=1"))
		})
	})

	Describe("EndCall", func() {
		It("posts end-call to the control url without the secret key", func() {
			Expect(client.EndCall(ctx, server.URL+"/control/call_1")).To(Succeed())

			var req recordedRequest
			Eventually(requests).Should(Receive(&req))
			Expect(req.path).To(Equal("/control/call_1"))
			Expect(req.auth).To(BeEmpty())
			Expect(req.body["type"]).To(Equal("end-call"))
		})

		It("needs a control url", func() {
			Expect(client.EndCall(ctx, "")).NotTo(Succeed())
		})
	})
})
