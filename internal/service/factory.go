package service

import (
	"voicedesk.app/server/core/config"
	"voicedesk.app/server/internal/enhance"
	"voicedesk.app/server/internal/store"
	"voicedesk.app/server/internal/vapi"
	"voicedesk.app/server/internal/workflow"
)

// Deps are the collaborators services are built from. Vapi and Enhancer are
// nil when not configured; Recorder falls back to direct writes.
type Deps struct {
	Stores       *store.Stores
	TxRunner     TxRunner
	WorkOS       config.WorkOSConfig
	Vapi         vapi.Client
	Enhancer     enhance.Enhancer
	Workflow     workflow.Client
	Recorder     Recorder
	Provisioning ProvisioningConfig
	WorkflowOn   bool
}

type Services struct {
	deps Deps
}

func NewServices(deps Deps) *Services {
	if deps.Recorder == nil {
		deps.Recorder = NewDirectRecorder(deps.Stores.Conversations(), deps.Stores.WorkflowInteractions())
	}
	return &Services{deps: deps}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.deps.Stores.Users(), s.deps.Stores.Sessions(), s.deps.WorkOS)
}

func (s *Services) Agents() AgentService {
	return NewAgentService(
		s.deps.Stores.Agents(),
		s.deps.TxRunner,
		s.deps.Vapi,
		s.deps.Enhancer,
		s.deps.Provisioning,
		s.deps.WorkflowOn,
	)
}

func (s *Services) History() HistoryService {
	return NewHistoryService(s.deps.Stores.Conversations())
}

func (s *Services) Dispatcher() FunctionDispatcher {
	return NewFunctionDispatcher(
		s.deps.Workflow,
		s.History(),
		s.deps.Stores.PhoneBindings(),
		s.deps.Recorder,
	)
}

func (s *Services) Inbound() InboundService {
	return NewInboundService(s.deps.Stores.PhoneBindings(), s.deps.Stores.Agents(), s.deps.Provisioning)
}

func (s *Services) PhoneBindings() PhoneBindingService {
	return NewPhoneBindingService(s.Agents(), s.deps.TxRunner)
}

func (s *Services) Forwarder() WorkflowForwarder {
	return NewWorkflowForwarder(s.deps.Workflow)
}

func (s *Services) Recorder() Recorder {
	return s.deps.Recorder
}

// Vapi is the remote assistant client, or nil when not configured.
func (s *Services) Vapi() vapi.Client {
	return s.deps.Vapi
}

func (s *Services) Stores() *store.Stores {
	return s.deps.Stores
}
