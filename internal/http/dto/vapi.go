package dto

import (
	"time"

	"voicedesk.app/server/internal/vapi"
)

// FunctionResultResponse is the only shape Vapi accepts back from a function call.
type FunctionResultResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

type ValidateAssistantRequest struct {
	AssistantID string `json:"assistantId" binding:"required"`
}

type AssistantSummary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Model     *vapi.Model `json:"model,omitempty"`
	Voice     *vapi.Voice `json:"voice,omitempty"`
	CreatedAt *time.Time  `json:"createdAt,omitempty"`
}

type ValidateAssistantResponse struct {
	Valid     bool              `json:"valid"`
	Assistant *AssistantSummary `json:"assistant,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func ToAssistantSummary(a *vapi.Assistant) *AssistantSummary {
	return &AssistantSummary{
		ID:        a.ID,
		Name:      a.Name,
		Model:     a.Model,
		Voice:     a.Voice,
		CreatedAt: a.CreatedAt,
	}
}

type UpdateAssistantRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	FirstMessage *string `json:"firstMessage,omitempty"`
	SystemPrompt *string `json:"systemPrompt,omitempty"`
}

func (r UpdateAssistantRequest) ToUpdate() vapi.AssistantUpdate {
	update := vapi.AssistantUpdate{Name: r.Name, FirstMessage: r.FirstMessage}
	if r.SystemPrompt != nil {
		update.Model = vapi.BuildModel(*r.SystemPrompt)
	}
	return update
}

type N8NWebhookRequest struct {
	UserMessage    string         `json:"userMessage" binding:"required"`
	AgentID        string         `json:"agentId"`
	ConversationID string         `json:"conversationId"`
	AgentContext   map[string]any `json:"agentContext"`
}
