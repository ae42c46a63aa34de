package callsession_test

import (
	"context"
	"sync"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/service"
	"voicedesk.app/server/internal/store"
	"voicedesk.app/server/internal/vapi"
)

type mockAgentService struct {
	getFn func(ctx context.Context, userID, agentID int64) (*model.Agent, error)
}

func (m *mockAgentService) Create(ctx context.Context, userID int64, draft model.AgentDraft, enhance bool) (*model.Agent, error) {
	return nil, nil
}

func (m *mockAgentService) Get(ctx context.Context, userID, agentID int64) (*model.Agent, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, agentID)
	}
	return nil, service.ErrAgentNotFound
}

func (m *mockAgentService) List(ctx context.Context, userID int64) ([]model.Agent, error) {
	return nil, nil
}

func (m *mockAgentService) Update(ctx context.Context, userID, agentID int64, patch model.AgentPatch) (*model.Agent, error) {
	return nil, nil
}

func (m *mockAgentService) Delete(ctx context.Context, userID, agentID int64) error {
	return nil
}

func (m *mockAgentService) Enhance(ctx context.Context, draft model.AgentDraft) (model.AgentDraft, error) {
	return draft, nil
}

func (m *mockAgentService) EnhancePrompt(ctx context.Context, draft model.AgentDraft) (string, error) {
	return "", nil
}

func (m *mockAgentService) Status() service.ProvisioningStatus {
	return service.ProvisioningStatus{}
}

type mockConversationStore struct {
	mu                   sync.Mutex
	created              []model.Conversation
	createFn             func(ctx context.Context, conv *model.Conversation) error
	listRecentMessagesFn func(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error)
}

func (m *mockConversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	return nil, store.ErrNotFound
}

func (m *mockConversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, conv); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.created = append(m.created, *conv)
	m.mu.Unlock()
	return nil
}

func (m *mockConversationStore) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func (m *mockConversationStore) ListRecent(ctx context.Context, agentID, userID int64, limit int32) ([]model.Conversation, error) {
	return nil, nil
}

func (m *mockConversationStore) AddMessage(ctx context.Context, msg *model.Message) error {
	return nil
}

func (m *mockConversationStore) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	return nil, nil
}

func (m *mockConversationStore) ListRecentMessages(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error) {
	if m.listRecentMessagesFn != nil {
		return m.listRecentMessagesFn(ctx, conversationID, limit)
	}
	return nil, nil
}

type mockDispatcher struct {
	processFn func(ctx context.Context, params vapi.ProcessWithN8NParams, caller service.Caller) service.WorkflowOutcome
}

func (m *mockDispatcher) Dispatch(ctx context.Context, in service.FunctionCallInput) string {
	return ""
}

func (m *mockDispatcher) ProcessWithN8N(ctx context.Context, params vapi.ProcessWithN8NParams, caller service.Caller) service.WorkflowOutcome {
	if m.processFn != nil {
		return m.processFn(ctx, params, caller)
	}
	return service.WorkflowOutcome{Result: service.ResultWorkflowFallback}
}

type mockRecorder struct {
	mu    sync.Mutex
	turns []service.TranscriptTurn
}

func (m *mockRecorder) RecordTurn(ctx context.Context, turn service.TranscriptTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	return nil
}

func (m *mockRecorder) RecordWorkflowInteraction(ctx context.Context, record service.WorkflowRecord) error {
	return nil
}

func (m *mockRecorder) recorded() []service.TranscriptTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.TranscriptTurn(nil), m.turns...)
}

type mockCallEnder struct {
	mu   sync.Mutex
	urls []string
}

func (m *mockCallEnder) EndCall(ctx context.Context, controlURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, controlURL)
	return nil
}

func (m *mockCallEnder) ended() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}
