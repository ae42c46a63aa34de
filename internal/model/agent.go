package model

import (
	"fmt"
	"time"
)

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusTraining AgentStatus = "training"
)

type Personality string

const (
	PersonalityProfessional Personality = "professional"
	PersonalityFriendly     Personality = "friendly"
	PersonalityEmpathetic   Personality = "empathetic"
	PersonalityDirect       Personality = "direct"
)

type ResponseStyle string

const (
	ResponseStyleBalanced ResponseStyle = "balanced"
	ResponseStyleConcise  ResponseStyle = "concise"
	ResponseStyleDetailed ResponseStyle = "detailed"
)

// Agent is a user-owned HR voice persona. VapiAssistantID is set only once the
// remote assistant exists.
type Agent struct {
	ID              int64         `json:"id,string"`
	UserID          int64         `json:"user_id,string"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Personality     Personality   `json:"personality"`
	ResponseStyle   ResponseStyle `json:"response_style"`
	CompanyContext  string        `json:"company_context"`
	KnowledgeBase   string        `json:"knowledge_base"`
	WelcomeMessage  string        `json:"welcome_message"`
	SystemPrompt    *string       `json:"system_prompt,omitempty"`
	VapiAssistantID *string       `json:"vapi_assistant_id,omitempty"`
	Status          AgentStatus   `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// HasAssistant reports whether the agent has a remote twin.
func (a *Agent) HasAssistant() bool {
	return a.VapiAssistantID != nil && *a.VapiAssistantID != ""
}

// AgentDraft is the user-editable part of an agent, before it is persisted.
type AgentDraft struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Personality    Personality   `json:"personality"`
	ResponseStyle  ResponseStyle `json:"response_style"`
	CompanyContext string        `json:"company_context"`
	KnowledgeBase  string        `json:"knowledge_base"`
	WelcomeMessage string        `json:"welcome_message"`
	SystemPrompt   string        `json:"system_prompt,omitempty"`
}

// DefaultWelcomeMessage is used whenever an agent has no greeting of its own.
func DefaultWelcomeMessage(name string) string {
	return fmt.Sprintf("Hello! I'm %s. How can I help you today?", name)
}

// AgentPatch carries a partial update. Nil fields are left untouched.
type AgentPatch struct {
	Name           *string
	Description    *string
	Personality    *Personality
	ResponseStyle  *ResponseStyle
	CompanyContext *string
	KnowledgeBase  *string
	WelcomeMessage *string
	SystemPrompt   *string
	Status         *AgentStatus
}

// TouchesSystemPrompt reports whether the patch changes what the remote
// assistant should be told.
func (p AgentPatch) TouchesSystemPrompt() bool {
	return p.SystemPrompt != nil
}

// Apply merges the patch into the agent in place.
func (p AgentPatch) Apply(a *Agent) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Personality != nil {
		a.Personality = *p.Personality
	}
	if p.ResponseStyle != nil {
		a.ResponseStyle = *p.ResponseStyle
	}
	if p.CompanyContext != nil {
		a.CompanyContext = *p.CompanyContext
	}
	if p.KnowledgeBase != nil {
		a.KnowledgeBase = *p.KnowledgeBase
	}
	if p.WelcomeMessage != nil {
		a.WelcomeMessage = *p.WelcomeMessage
	}
	if p.SystemPrompt != nil {
		if *p.SystemPrompt == "" {
			a.SystemPrompt = nil
		} else {
			prompt := *p.SystemPrompt
			a.SystemPrompt = &prompt
		}
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
}
