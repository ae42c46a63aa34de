package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/common/llm"
)

var _ = Describe("NewTextClient", func() {
	It("requires an API key", func() {
		_, err := llm.NewTextClient(llm.Config{Provider: llm.ProviderAnthropic})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	It("rejects unknown providers", func() {
		_, err := llm.NewTextClient(llm.Config{Provider: "cohere", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("defaults to anthropic", func() {
		client, err := llm.NewTextClient(llm.Config{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(HavePrefix("claude"))
	})

	It("keeps an explicit model", func() {
		client, err := llm.NewTextClient(llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k", Model: "gpt-4o"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4o"))
	})
})

var _ = Describe("anthropic completions", func() {
	var (
		server   *httptest.Server
		received map[string]any
		calls    atomic.Int32
	)

	BeforeEach(func() {
		calls.Store(0)
		received = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			defer GinkgoRecover()
			Expect(r.URL.Path).To(HaveSuffix("/v1/messages"))
			body, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(body, &received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "msg_1",
				"type": "message",
				"role": "assistant",
				"model": "claude-3-5-sonnet-20241022",
				"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there"}],
				"stop_reason": "end_turn",
				"stop_sequence": null,
				"usage": {"input_tokens": 12, "output_tokens": 4}
			}`))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the system prompt separately and joins text blocks", func() {
		client, err := llm.NewTextClient(llm.Config{APIKey: "k", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		resp, err := client.Complete(context.Background(), llm.CompletionRequest{
			System:      "be brief",
			Messages:    llm.UserPrompt("hi"),
			MaxTokens:   2000,
			Temperature: llm.Temp(0.7),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.Content).To(Equal("Hello there"))
		Expect(resp.FinishReason).To(Equal("stop"))
		Expect(resp.PromptTokens).To(Equal(12))
		Expect(received["max_tokens"]).To(BeNumerically("==", 2000))
		Expect(received["system"]).To(HaveLen(1))
		Expect(received["messages"]).To(HaveLen(1))
	})

	It("does not retry failed requests", func() {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()

		client, err := llm.NewTextClient(llm.Config{APIKey: "k", BaseURL: failing.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Complete(context.Background(), llm.CompletionRequest{Messages: llm.UserPrompt("hi")})
		Expect(err).To(HaveOccurred())
		Expect(calls.Load()).To(Equal(int32(1)))
	})
})

var _ = Describe("openai completions", func() {
	It("prepends the system message", func() {
		var received map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(strings.HasSuffix(r.URL.Path, "/chat/completions")).To(BeTrue())
			body, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(body, &received)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"created": 1,
				"model": "gpt-4o-mini",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "Sure"}, "finish_reason": "stop"}],
				"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
			}`))
		}))
		defer server.Close()

		client, err := llm.NewTextClient(llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		resp, err := client.Complete(context.Background(), llm.CompletionRequest{
			System:   "sys",
			Messages: []llm.Message{{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("Sure"))

		messages, ok := received["messages"].([]any)
		Expect(ok).To(BeTrue())
		Expect(messages).To(HaveLen(3))
		Expect(messages[0].(map[string]any)["role"]).To(Equal("system"))
		Expect(messages[2].(map[string]any)["role"]).To(Equal("assistant"))
	})
})

var _ = Describe("GenerateSchema", func() {
	type answer struct {
		Reply string `json:"reply"`
	}

	It("forbids additional properties", func() {
		raw, err := json.Marshal(llm.GenerateSchema[answer]())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring(`"additionalProperties":false`))
		Expect(string(raw)).To(ContainSubstring(`"reply"`))
	})
})
