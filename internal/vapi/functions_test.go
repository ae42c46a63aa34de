package vapi_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/vapi"
)

var _ = Describe("DecodeParameters", func() {
	It("decodes processWithN8N parameters", func() {
		params, err := vapi.DecodeParameters[vapi.ProcessWithN8NParams](json.RawMessage(
			`{"userMessage": "What is the PTO policy?", "agentId": "42", "context": {"topic": "pto"}}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(params.UserMessage).To(Equal("What is the PTO policy?"))
		Expect(params.AgentID).To(Equal("42"))
		Expect(params.Context).To(HaveKeyWithValue("topic", "pto"))
	})

	It("accepts parameters encoded as a JSON string", func() {
		params, err := vapi.DecodeParameters[vapi.ProcessWithN8NParams](json.RawMessage(
			`"{\"userMessage\": \"hi\"}"`))

		Expect(err).NotTo(HaveOccurred())
		Expect(params.UserMessage).To(Equal("hi"))
	})

	It("requires userMessage", func() {
		_, err := vapi.DecodeParameters[vapi.ProcessWithN8NParams](json.RawMessage(`{"agentId": "42"}`))
		Expect(err).To(MatchError(vapi.ErrInvalidParameters))
	})

	It("rejects missing parameters", func() {
		_, err := vapi.DecodeParameters[vapi.ProcessWithN8NParams](nil)
		Expect(err).To(MatchError(vapi.ErrInvalidParameters))
	})

	It("rejects the wrong shape", func() {
		_, err := vapi.DecodeParameters[vapi.ProcessWithN8NParams](json.RawMessage(`[1, 2]`))
		Expect(err).To(MatchError(vapi.ErrInvalidParameters))
	})

	It("keeps addDocument documents verbatim", func() {
		params, err := vapi.DecodeParameters[vapi.AddDocumentParams](json.RawMessage(
			`{"document": {"title": "Handbook", "body": "..."}}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(string(params.Document)).To(MatchJSON(`{"title": "Handbook", "body": "..."}`))
	})

	It("requires a document", func() {
		_, err := vapi.DecodeParameters[vapi.AddDocumentParams](json.RawMessage(`{"document": null}`))
		Expect(err).To(MatchError(vapi.ErrInvalidParameters))
	})
})

var _ = Describe("ProcessWithN8NFunction", func() {
	It("declares userMessage as the only required parameter", func() {
		raw, err := json.Marshal(vapi.ProcessWithN8NFunction().Parameters)
		Expect(err).NotTo(HaveOccurred())

		var schema struct {
			Type       string                    `json:"type"`
			Required   []string                  `json:"required"`
			Properties map[string]map[string]any `json:"properties"`
		}
		Expect(json.Unmarshal(raw, &schema)).To(Succeed())

		Expect(schema.Type).To(Equal("object"))
		Expect(schema.Required).To(ConsistOf("userMessage"))
		Expect(schema.Properties).To(HaveKey("agentId"))
		Expect(schema.Properties).To(HaveKey("context"))
		Expect(schema.Properties["userMessage"]["type"]).To(Equal("string"))
		Expect(string(raw)).NotTo(ContainSubstring("$schema"))
	})
})
