package store

import (
	"voicedesk.app/server/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.queries)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.queries)
}

func (s *Stores) Agents() AgentStore {
	return newAgentStore(s.queries)
}

func (s *Stores) Conversations() ConversationStore {
	return newConversationStore(s.queries)
}

func (s *Stores) WorkflowInteractions() WorkflowInteractionStore {
	return newWorkflowInteractionStore(s.queries)
}

func (s *Stores) PhoneBindings() PhoneBindingStore {
	return newPhoneBindingStore(s.queries)
}
