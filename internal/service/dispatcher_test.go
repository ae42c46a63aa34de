package service_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/service"
	"voicedesk.app/server/internal/vapi"
	"voicedesk.app/server/internal/workflow"
)

type stubHistory struct {
	recentFn func(ctx context.Context, agentID, userID int64) ([]model.ConversationHistory, error)
}

func (s *stubHistory) Recent(ctx context.Context, agentID, userID int64) ([]model.ConversationHistory, error) {
	if s.recentFn != nil {
		return s.recentFn(ctx, agentID, userID)
	}
	return nil, nil
}

func (s *stubHistory) Memory(ctx context.Context, agentID, userID int64) (*service.MemoryContext, error) {
	return service.BuildMemoryContext(nil), nil
}

func functionCall(name, params string, call *vapi.Call) vapi.ServerMessage {
	return vapi.ServerMessage{
		Type:         vapi.MessageTypeFunctionCall,
		FunctionCall: &vapi.FunctionCall{Name: name, Parameters: json.RawMessage(params)},
		Call:         call,
	}
}

var _ = Describe("FunctionDispatcher", func() {
	var (
		ctx        context.Context
		wf         *mockWorkflowClient
		history    *stubHistory
		bindings   *mockPhoneBindingStore
		recorder   *mockRecorder
		dispatcher service.FunctionDispatcher
		lastReq    workflow.AgentResponseRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		lastReq = workflow.AgentResponseRequest{}
		wf = &mockWorkflowClient{
			agentResponseFn: func(ctx context.Context, req workflow.AgentResponseRequest) (*workflow.Reply, error) {
				lastReq = req
				return &workflow.Reply{Raw: json.RawMessage(`{"response":"You have 12 days left."}`), Response: "You have 12 days left."}, nil
			},
			addDocumentFn: func(ctx context.Context, req workflow.AddDocumentRequest) (*workflow.Reply, error) {
				return &workflow.Reply{Raw: json.RawMessage(`{}`)}, nil
			},
		}
		history = &stubHistory{}
		bindings = &mockPhoneBindingStore{}
		recorder = &mockRecorder{}
		dispatcher = service.NewFunctionDispatcher(wf, history, bindings, recorder)
	})

	It("ignores messages that are not function calls", func() {
		result := dispatcher.Dispatch(ctx, service.FunctionCallInput{Message: vapi.ServerMessage{Type: "status-update"}})
		Expect(result).To(Equal("No function call detected"))
	})

	It("names unknown functions", func() {
		result := dispatcher.Dispatch(ctx, service.FunctionCallInput{Message: functionCall("bookFlight", `{}`, nil)})
		Expect(result).To(Equal("Unknown function: bookFlight"))
	})

	Describe("processWithN8N", func() {
		It("returns the workflow response", func() {
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"How much PTO do I have?","agentId":"5","context":{"topic":"pto"}}`, nil),
			})
			Expect(result).To(Equal("You have 12 days left."))
			Expect(lastReq.Text).To(Equal("How much PTO do I have?"))
			Expect(lastReq.AgentID).To(Equal("5"))
			Expect(lastReq.Context).To(HaveKeyWithValue("topic", "pto"))
			Expect(lastReq.ConversationHistory).To(BeEmpty())
		})

		It("falls back to message and then the fixed reply", func() {
			wf.agentResponseFn = func(ctx context.Context, req workflow.AgentResponseRequest) (*workflow.Reply, error) {
				return &workflow.Reply{Message: "Handled by HR."}, nil
			}
			Expect(dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"hi"}`, nil),
			})).To(Equal("Handled by HR."))

			wf.agentResponseFn = func(ctx context.Context, req workflow.AgentResponseRequest) (*workflow.Reply, error) {
				return &workflow.Reply{}, nil
			}
			Expect(dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"hi"}`, nil),
			})).To(Equal(service.ResultWorkflowFallback))
		})

		It("apologizes when the workflow is unreachable", func() {
			wf.agentResponseFn = func(ctx context.Context, req workflow.AgentResponseRequest) (*workflow.Reply, error) {
				return nil, errors.New("context deadline exceeded")
			}
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"hi","agentId":"5"}`, nil),
			})
			Expect(result).To(Equal("I encountered an error processing your request. Please try again."))
			Expect(recorder.interactions).To(BeEmpty())
		})

		It("apologizes when userMessage is missing", func() {
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"agentId":"5"}`, nil),
			})
			Expect(result).To(Equal(service.ResultWorkflowFailed))
		})

		It("attaches history for a known caller from the session", func() {
			userID := int64(77)
			history.recentFn = func(ctx context.Context, agentID, uid int64) ([]model.ConversationHistory, error) {
				Expect(agentID).To(Equal(int64(5)))
				Expect(uid).To(Equal(userID))
				return []model.ConversationHistory{{
					Messages: []model.Message{
						{Role: model.MessageRoleUser, Content: "What is our 401k match?"},
						{Role: model.MessageRoleAssistant, Content: "It is 4%."},
					},
				}}, nil
			}

			dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message:     functionCall("processWithN8N", `{"userMessage":"And vesting?"}`, nil),
				PathAgentID: "5",
				SessionUser: &userID,
			})
			Expect(lastReq.AgentID).To(Equal("5"))
			Expect(lastReq.ConversationHistory).To(Equal("Previous conversations:\nuser: What is our 401k match?\nassistant: It is 4%.\n"))
		})

		It("resolves the caller from call metadata", func() {
			var gotUser int64
			history.recentFn = func(ctx context.Context, agentID, uid int64) ([]model.ConversationHistory, error) {
				gotUser = uid
				return nil, nil
			}

			dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"hi"}`, &vapi.Call{
					Metadata: map[string]any{"agentId": "5", "userId": float64(88)},
				}),
			})
			Expect(lastReq.AgentID).To(Equal("5"))
			Expect(gotUser).To(Equal(int64(88)))
		})

		It("resolves the caller from the phone binding", func() {
			bindings.getByPhoneNumberFn = func(ctx context.Context, number string) (*model.PhoneAgentBinding, error) {
				Expect(number).To(Equal("+15551234567"))
				return &model.PhoneAgentBinding{AgentID: 5, UserID: 99}, nil
			}
			var gotAgent, gotUser int64
			history.recentFn = func(ctx context.Context, agentID, uid int64) ([]model.ConversationHistory, error) {
				gotAgent, gotUser = agentID, uid
				return nil, nil
			}

			dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"hi"}`, &vapi.Call{
					Customer: &vapi.Customer{Number: "(555) 123-4567"},
				}),
			})
			Expect(gotAgent).To(Equal(int64(5)))
			Expect(gotUser).To(Equal(int64(99)))
			Expect(recorder.interactions).To(HaveLen(1))
			Expect(recorder.interactions[0].AgentID).To(Equal(int64(5)))
		})

		It("records the interaction with the raw response", func() {
			dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"hi","agentId":"5"}`, nil),
			})
			Expect(recorder.interactions).To(HaveLen(1))
			Expect(recorder.interactions[0].UserMessage).To(Equal("hi"))
			Expect(string(recorder.interactions[0].Response)).To(ContainSubstring("12 days"))
		})

		It("still answers when recording fails", func() {
			recorder.err = errors.New("redis down")
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `{"userMessage":"hi","agentId":"5"}`, nil),
			})
			Expect(result).To(Equal("You have 12 days left."))
		})

		It("accepts string-encoded parameters", func() {
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("processWithN8N", `"{\"userMessage\":\"hi\"}"`, nil),
			})
			Expect(result).To(Equal("You have 12 days left."))
		})
	})

	Describe("addDocument", func() {
		It("confirms with the fixed reply", func() {
			var got workflow.AddDocumentRequest
			wf.addDocumentFn = func(ctx context.Context, req workflow.AddDocumentRequest) (*workflow.Reply, error) {
				got = req
				return &workflow.Reply{}, nil
			}
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message:     functionCall("addDocument", `{"document":{"title":"Handbook"}}`, nil),
				PathAgentID: "5",
			})
			Expect(result).To(Equal("Document has been successfully added to the knowledge base."))
			Expect(got.AgentID).To(Equal("5"))
			Expect(string(got.Document)).To(MatchJSON(`{"title":"Handbook"}`))
		})

		It("prefers the workflow response", func() {
			wf.addDocumentFn = func(ctx context.Context, req workflow.AddDocumentRequest) (*workflow.Reply, error) {
				return &workflow.Reply{Response: "Indexed 3 pages."}, nil
			}
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("addDocument", `{"document":"PTO policy text"}`, nil),
			})
			Expect(result).To(Equal("Indexed 3 pages."))
		})

		It("apologizes on failure", func() {
			wf.addDocumentFn = func(ctx context.Context, req workflow.AddDocumentRequest) (*workflow.Reply, error) {
				return nil, &workflow.StatusError{StatusCode: 500}
			}
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("addDocument", `{"document":"x"}`, nil),
			})
			Expect(result).To(Equal("I couldn't add the document at this time. Please try again."))
		})

		It("apologizes when the document is missing", func() {
			result := dispatcher.Dispatch(ctx, service.FunctionCallInput{
				Message: functionCall("addDocument", `{}`, nil),
			})
			Expect(result).To(Equal(service.ResultDocumentFailed))
		})
	})
})
