package store

import (
	"context"
	"errors"

	"voicedesk.app/server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetValid(ctx context.Context, id int64) (*model.Session, error) // checks expiry
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context) error
}

// AgentStore defines the contract for agent data access.
// Deleted agents are invisible to every read.
type AgentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Agent, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Agent, error)
	Create(ctx context.Context, agent *model.Agent) error
	Update(ctx context.Context, agent *model.Agent) error
	SetVapiAssistantID(ctx context.Context, id int64, assistantID string) (*model.Agent, error)
	Delete(ctx context.Context, id int64) error // soft delete
}

// ConversationStore defines the contract for conversation and message data access
type ConversationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	Create(ctx context.Context, conv *model.Conversation) error
	ListRecent(ctx context.Context, agentID, userID int64, limit int32) ([]model.Conversation, error)
	AddMessage(ctx context.Context, msg *model.Message) error
	ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error)
	ListRecentMessages(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error)
}

// WorkflowInteractionStore is the write side of the workflow audit trail
type WorkflowInteractionStore interface {
	Create(ctx context.Context, interaction *model.WorkflowInteraction) error
	ListByAgent(ctx context.Context, agentID int64, limit int32) ([]model.WorkflowInteraction, error)
}

// PhoneBindingStore maps inbound phone numbers to agents
type PhoneBindingStore interface {
	GetByPhoneNumber(ctx context.Context, phoneNumber string) (*model.PhoneAgentBinding, error)
	Upsert(ctx context.Context, binding *model.PhoneAgentBinding) error
	DeleteByAgent(ctx context.Context, agentID int64) error
}
