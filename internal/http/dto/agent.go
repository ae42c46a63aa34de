package dto

import (
	"strconv"
	"time"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/service"
)

type AgentDraft struct {
	Name           string `json:"name" binding:"required,min=1,max=255"`
	Description    string `json:"description" binding:"max=2000"`
	Personality    string `json:"personality" binding:"omitempty,oneof=professional friendly empathetic direct"`
	ResponseStyle  string `json:"response_style" binding:"omitempty,oneof=balanced concise detailed"`
	CompanyContext string `json:"company_context"`
	KnowledgeBase  string `json:"knowledge_base"`
	WelcomeMessage string `json:"welcome_message" binding:"max=1000"`
	SystemPrompt   string `json:"system_prompt,omitempty"`
}

func (d AgentDraft) ToModel() model.AgentDraft {
	return model.AgentDraft{
		Name:           d.Name,
		Description:    d.Description,
		Personality:    model.Personality(d.Personality),
		ResponseStyle:  model.ResponseStyle(d.ResponseStyle),
		CompanyContext: d.CompanyContext,
		KnowledgeBase:  d.KnowledgeBase,
		WelcomeMessage: d.WelcomeMessage,
		SystemPrompt:   d.SystemPrompt,
	}
}

func ToAgentDraft(d model.AgentDraft) AgentDraft {
	return AgentDraft{
		Name:           d.Name,
		Description:    d.Description,
		Personality:    string(d.Personality),
		ResponseStyle:  string(d.ResponseStyle),
		CompanyContext: d.CompanyContext,
		KnowledgeBase:  d.KnowledgeBase,
		WelcomeMessage: d.WelcomeMessage,
		SystemPrompt:   d.SystemPrompt,
	}
}

type CreateAgentRequest struct {
	AgentDraft
	Enhance bool `json:"enhance"`
}

type UpdateAgentRequest struct {
	Name           *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Description    *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Personality    *string `json:"personality,omitempty" binding:"omitempty,oneof=professional friendly empathetic direct"`
	ResponseStyle  *string `json:"response_style,omitempty" binding:"omitempty,oneof=balanced concise detailed"`
	CompanyContext *string `json:"company_context,omitempty"`
	KnowledgeBase  *string `json:"knowledge_base,omitempty"`
	WelcomeMessage *string `json:"welcome_message,omitempty" binding:"omitempty,max=1000"`
	SystemPrompt   *string `json:"system_prompt,omitempty"`
	Status         *string `json:"status,omitempty" binding:"omitempty,oneof=active inactive training"`
}

func (r UpdateAgentRequest) ToPatch() model.AgentPatch {
	patch := model.AgentPatch{
		Name:           r.Name,
		Description:    r.Description,
		CompanyContext: r.CompanyContext,
		KnowledgeBase:  r.KnowledgeBase,
		WelcomeMessage: r.WelcomeMessage,
		SystemPrompt:   r.SystemPrompt,
	}
	if r.Personality != nil {
		p := model.Personality(*r.Personality)
		patch.Personality = &p
	}
	if r.ResponseStyle != nil {
		s := model.ResponseStyle(*r.ResponseStyle)
		patch.ResponseStyle = &s
	}
	if r.Status != nil {
		s := model.AgentStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}

type AgentResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Personality     string    `json:"personality"`
	ResponseStyle   string    `json:"response_style"`
	CompanyContext  string    `json:"company_context"`
	KnowledgeBase   string    `json:"knowledge_base"`
	WelcomeMessage  string    `json:"welcome_message"`
	SystemPrompt    *string   `json:"system_prompt,omitempty"`
	VapiAssistantID *string   `json:"vapi_assistant_id,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func ToAgentResponse(a *model.Agent) AgentResponse {
	return AgentResponse{
		ID:              strconv.FormatInt(a.ID, 10),
		Name:            a.Name,
		Description:     a.Description,
		Personality:     string(a.Personality),
		ResponseStyle:   string(a.ResponseStyle),
		CompanyContext:  a.CompanyContext,
		KnowledgeBase:   a.KnowledgeBase,
		WelcomeMessage:  a.WelcomeMessage,
		SystemPrompt:    a.SystemPrompt,
		VapiAssistantID: a.VapiAssistantID,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func ToAgentResponses(agents []model.Agent) []AgentResponse {
	out := make([]AgentResponse, 0, len(agents))
	for i := range agents {
		out = append(out, ToAgentResponse(&agents[i]))
	}
	return out
}

type EnhanceRequest struct {
	Agent AgentDraft `json:"agent" binding:"required"`
}

type EnhanceResponse struct {
	Agent AgentDraft `json:"agent"`
}

type EnhancePromptRequest struct {
	AgentInfo AgentDraft `json:"agent_info" binding:"required"`
}

type EnhancePromptResponse struct {
	EnhancedPrompt string `json:"enhanced_prompt"`
}

type MemoryRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

type MemoryResponse struct {
	MemoryContext *service.MemoryContext `json:"memory_context"`
}

type DebugAgent struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	VapiAssistantID *string   `json:"vapi_assistant_id,omitempty"`
	HasVapi         bool      `json:"has_vapi"`
	CreatedAt       time.Time `json:"created_at"`
}

type DebugResponse struct {
	Agents []DebugAgent               `json:"agents"`
	Config service.ProvisioningStatus `json:"config"`
}

func ToDebugResponse(agents []model.Agent, status service.ProvisioningStatus) DebugResponse {
	out := DebugResponse{Agents: make([]DebugAgent, 0, len(agents)), Config: status}
	for i := range agents {
		a := &agents[i]
		out.Agents = append(out.Agents, DebugAgent{
			ID:              strconv.FormatInt(a.ID, 10),
			Name:            a.Name,
			VapiAssistantID: a.VapiAssistantID,
			HasVapi:         a.HasAssistant(),
			CreatedAt:       a.CreatedAt,
		})
	}
	return out
}

type PhoneNumberRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,max=32"`
}

type PhoneBindingResponse struct {
	AgentID     string `json:"agent_id"`
	PhoneNumber string `json:"phone_number"`
}

func ToPhoneBindingResponse(b *model.PhoneAgentBinding) PhoneBindingResponse {
	return PhoneBindingResponse{
		AgentID:     strconv.FormatInt(b.AgentID, 10),
		PhoneNumber: b.PhoneNumber,
	}
}
