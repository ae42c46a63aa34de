package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/http/handler"
	"voicedesk.app/server/internal/service"
)

var _ = Describe("WebhookHandler", func() {
	var (
		router    *gin.Engine
		forwarder *mockForwarder
	)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhook/n8n", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		forwarder = &mockForwarder{}
		router = gin.New()
		router.POST("/webhook/n8n", handler.NewWebhookHandler(forwarder).N8N)
	})

	It("relays the request and returns the workflow answer", func() {
		var got service.ForwardInput
		forwarder.forwardFn = func(_ context.Context, in service.ForwardInput) (*service.ForwardResult, error) {
			got = in
			return &service.ForwardResult{
				Response: "Open enrollment ends Friday.",
				Metadata: json.RawMessage(`{"source":"handbook"}`),
			}, nil
		}

		w := post(`{"userMessage":"When does enrollment end?","agentId":"42","conversationId":"9","agentContext":{"name":"Benefits Bot"}}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"response":"Open enrollment ends Friday.","metadata":{"source":"handbook"}}`))
		Expect(got.UserMessage).To(Equal("When does enrollment end?"))
		Expect(got.AgentID).To(Equal("42"))
		Expect(got.ConversationID).To(Equal("9"))
		Expect(got.AgentContext).To(MatchJSON(`{"name":"Benefits Bot"}`))
	})

	It("apologizes with 500 when the workflow is unreachable", func() {
		forwarder.forwardFn = func(context.Context, service.ForwardInput) (*service.ForwardResult, error) {
			return nil, errors.New("connection refused")
		}

		w := post(`{"userMessage":"hi"}`)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"response":"` + service.ForwardFailed + `"}`))
	})

	It("returns 400 without a user message", func() {
		w := post(`{"agentId":"42"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
