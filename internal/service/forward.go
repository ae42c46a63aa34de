package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"voicedesk.app/server/internal/workflow"
)

const (
	ForwardFallback = "I'll help you with that."
	ForwardFailed   = "I'm having trouble connecting to my knowledge base. Please try again."
)

type ForwardInput struct {
	UserMessage    string          `json:"userMessage"`
	AgentID        string          `json:"agentId"`
	ConversationID string          `json:"conversationId"`
	AgentContext   json.RawMessage `json:"agentContext"`
}

type ForwardResult struct {
	Response string          `json:"response"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// WorkflowForwarder relays a free-form request to the generic workflow webhook.
type WorkflowForwarder interface {
	Forward(ctx context.Context, in ForwardInput) (*ForwardResult, error)
}

type workflowForwarder struct {
	workflow workflow.Client
}

func NewWorkflowForwarder(workflowClient workflow.Client) WorkflowForwarder {
	return &workflowForwarder{workflow: workflowClient}
}

func (f *workflowForwarder) Forward(ctx context.Context, in ForwardInput) (*ForwardResult, error) {
	reply, err := f.workflow.Forward(ctx, workflow.ForwardRequest{
		UserMessage:    in.UserMessage,
		AgentID:        in.AgentID,
		ConversationID: in.ConversationID,
		AgentContext:   in.AgentContext,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "workflow forward failed", "error", err)
		return nil, err
	}

	response := reply.Response
	if response == "" {
		response = ForwardFallback
	}
	return &ForwardResult{Response: response, Metadata: reply.Metadata}, nil
}
