package vapi

import (
	"encoding/json"
	"fmt"
	"time"
)

// Assistant is the subset of the Vapi assistant resource this service reads and writes.
type Assistant struct {
	ID                    string         `json:"id,omitempty"`
	OrgID                 string         `json:"orgId,omitempty"`
	Name                  string         `json:"name,omitempty"`
	FirstMessage          string         `json:"firstMessage,omitempty"`
	Model                 *Model         `json:"model,omitempty"`
	Voice                 *Voice         `json:"voice,omitempty"`
	ServerURL             string         `json:"serverUrl,omitempty"`
	ServerURLSecret       string         `json:"serverUrlSecret,omitempty"`
	SilenceTimeoutSeconds int            `json:"silenceTimeoutSeconds,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
	CreatedAt             *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt             *time.Time     `json:"updatedAt,omitempty"`
}

// SystemPrompt returns the first system message of the model, if any.
func (a *Assistant) SystemPrompt() string {
	if a.Model == nil {
		return ""
	}
	for _, m := range a.Model.Messages {
		if m.Role == "system" {
			return m.Content
		}
	}
	return a.Model.SystemPrompt
}

type Model struct {
	Provider     string         `json:"provider"`
	Model        string         `json:"model"`
	Messages     []ModelMessage `json:"messages,omitempty"`
	SystemPrompt string         `json:"systemPrompt,omitempty"`
	Functions    []Function     `json:"functions,omitempty"`
	Temperature  *float64       `json:"temperature,omitempty"`
}

type ModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Voice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
	Model    string `json:"model,omitempty"`
}

// Function declares a callable function the assistant may invoke mid-call.
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// AssistantUpdate is a PATCH body. Only non-nil sections are sent.
type AssistantUpdate struct {
	Name         *string `json:"name,omitempty"`
	FirstMessage *string `json:"firstMessage,omitempty"`
	Model        *Model  `json:"model,omitempty"`
}

// AssistantOverrides are applied by the web SDK on top of a stored assistant.
type AssistantOverrides struct {
	Model    *Model         `json:"model,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ServerMessageEnvelope is the body Vapi posts to an assistant's serverUrl.
type ServerMessageEnvelope struct {
	Message ServerMessage `json:"message"`
}

type ServerMessage struct {
	Type         string        `json:"type"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
	Call         *Call         `json:"call,omitempty"`
}

// FunctionCall arrives with raw parameters; callers decode them per function name.
type FunctionCall struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// Call describes the live call a server message belongs to.
type Call struct {
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type,omitempty"`
	Customer *Customer      `json:"customer,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Monitor  *Monitor       `json:"monitor,omitempty"`
}

type Customer struct {
	Number string `json:"number,omitempty"`
}

type Monitor struct {
	ListenURL  string `json:"listenUrl,omitempty"`
	ControlURL string `json:"controlUrl,omitempty"`
}

// CustomerNumber returns the caller's number, or "" for web calls.
func (c *Call) CustomerNumber() string {
	if c == nil || c.Customer == nil {
		return ""
	}
	return c.Customer.Number
}

// MetadataString reads a string-ish metadata value. Numbers are formatted
// without exponent so snowflake ids survive a JSON round trip as float64.
func (c *Call) MetadataString(key string) string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	switch v := c.Metadata[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// InboundRequest covers both shapes Vapi uses to ask for an assistant on a
// phone call: a bare {call} body and an assistant-request server message.
type InboundRequest struct {
	Call    *Call          `json:"call,omitempty"`
	Message *ServerMessage `json:"message,omitempty"`
}

func (r InboundRequest) CallerNumber() string {
	if n := r.Call.CustomerNumber(); n != "" {
		return n
	}
	if r.Message != nil {
		return r.Message.Call.CustomerNumber()
	}
	return ""
}

// InboundResponse answers an inbound call with an inline assistant.
type InboundResponse struct {
	Assistant Assistant `json:"assistant"`
}

// Server message types this service reacts to.
const (
	MessageTypeFunctionCall     = "function-call"
	MessageTypeAssistantRequest = "assistant-request"
)
