package vapi_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/vapi"
)

var _ = Describe("Call", func() {
	It("reads metadata ids that arrive as numbers", func() {
		var call vapi.Call
		Expect(json.Unmarshal([]byte(`{"metadata": {"userId": 1790000000000000000, "conversationId": "77"}}`), &call)).To(Succeed())

		Expect(call.MetadataString("conversationId")).To(Equal("77"))
		Expect(call.MetadataString("userId")).NotTo(BeEmpty())
		Expect(call.MetadataString("missing")).To(BeEmpty())
	})

	It("is nil-safe", func() {
		var call *vapi.Call
		Expect(call.CustomerNumber()).To(BeEmpty())
		Expect(call.MetadataString("userId")).To(BeEmpty())
	})
})

var _ = Describe("InboundRequest", func() {
	It("reads the caller from a bare call body", func() {
		var req vapi.InboundRequest
		Expect(json.Unmarshal([]byte(`{"call": {"customer": {"number": "+14155550123"}}}`), &req)).To(Succeed())
		Expect(req.CallerNumber()).To(Equal("+14155550123"))
	})

	It("reads the caller from an assistant-request message", func() {
		var req vapi.InboundRequest
		Expect(json.Unmarshal([]byte(`{"message": {"type": "assistant-request", "call": {"customer": {"number": "+442079460958"}}}}`), &req)).To(Succeed())
		Expect(req.CallerNumber()).To(Equal("+442079460958"))
	})
})

var _ = Describe("DegradedAssistant", func() {
	It("apologises with the fallback model", func() {
		a := vapi.DegradedAssistant()
		Expect(a.FirstMessage).To(Equal("Hello! I'm having trouble accessing your information. How can I help you today?"))
		Expect(a.Model.Model).To(Equal("gpt-3.5-turbo"))
		Expect(a.SystemPrompt()).To(ContainSubstring("Apologize for technical difficulties"))
	})
})
