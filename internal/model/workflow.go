package model

import (
	"encoding/json"
	"time"
)

// WorkflowInteraction is the audit record of one processWithN8N round trip.
type WorkflowInteraction struct {
	ID               int64           `json:"id,string"`
	AgentID          int64           `json:"agent_id,string"`
	UserMessage      string          `json:"user_message"`
	WorkflowResponse json.RawMessage `json:"workflow_response,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// PhoneAgentBinding routes inbound phone calls to an agent.
type PhoneAgentBinding struct {
	ID          int64     `json:"id,string"`
	PhoneNumber string    `json:"phone_number"`
	AgentID     int64     `json:"agent_id,string"`
	UserID      int64     `json:"user_id,string"`
	CreatedAt   time.Time `json:"created_at"`
}
