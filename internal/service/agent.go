package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"voicedesk.app/server/common/id"
	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/enhance"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/prompt"
	"voicedesk.app/server/internal/store"
	"voicedesk.app/server/internal/vapi"
)

var (
	ErrAgentNotFound     = errors.New("agent not found")
	ErrInvalidAgent      = errors.New("invalid agent")
	ErrEnhancementFailed = errors.New("enhancement failed")
)

// ProvisioningConfig controls how remote assistants are described.
type ProvisioningConfig struct {
	AppURL        string
	WebhookSecret string
}

// ServerURL is where the voice API posts function calls for one agent.
func (c ProvisioningConfig) ServerURL(agentID int64) string {
	return fmt.Sprintf("%s/api/v1/vapi/webhook/%d", strings.TrimRight(c.AppURL, "/"), agentID)
}

// FunctionsURL is the agent-less dispatcher endpoint.
func (c ProvisioningConfig) FunctionsURL() string {
	return strings.TrimRight(c.AppURL, "/") + "/api/v1/vapi/functions"
}

// ProvisioningStatus reports which collaborators are configured.
type ProvisioningStatus struct {
	VapiConfigured     bool   `json:"vapi_configured"`
	EnhanceConfigured  bool   `json:"enhance_configured"`
	WorkflowConfigured bool   `json:"workflow_configured"`
	ServerURLTemplate  string `json:"server_url_template"`
}

type AgentService interface {
	Create(ctx context.Context, userID int64, draft model.AgentDraft, enhance bool) (*model.Agent, error)
	Get(ctx context.Context, userID, agentID int64) (*model.Agent, error)
	List(ctx context.Context, userID int64) ([]model.Agent, error)
	Update(ctx context.Context, userID, agentID int64, patch model.AgentPatch) (*model.Agent, error)
	Delete(ctx context.Context, userID, agentID int64) error
	Enhance(ctx context.Context, draft model.AgentDraft) (model.AgentDraft, error)
	EnhancePrompt(ctx context.Context, draft model.AgentDraft) (string, error)
	Status() ProvisioningStatus
}

type agentService struct {
	agents             store.AgentStore
	txRunner           TxRunner
	vapi               vapi.Client
	enhancer           enhance.Enhancer
	cfg                ProvisioningConfig
	workflowConfigured bool
}

// NewAgentService wires agent provisioning. vapiClient and enhancer may be nil
// when those collaborators are not configured.
func NewAgentService(
	agents store.AgentStore,
	txRunner TxRunner,
	vapiClient vapi.Client,
	enhancer enhance.Enhancer,
	cfg ProvisioningConfig,
	workflowConfigured bool,
) AgentService {
	return &agentService{
		agents:             agents,
		txRunner:           txRunner,
		vapi:               vapiClient,
		enhancer:           enhancer,
		cfg:                cfg,
		workflowConfigured: workflowConfigured,
	}
}

// Create stores the agent and then tries to give it a remote twin. Only the
// insert can fail the call; everything after it is best-effort.
func (s *agentService) Create(ctx context.Context, userID int64, draft model.AgentDraft, enhanceDraft bool) (*model.Agent, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.WelcomeMessage) == "" {
		draft.WelcomeMessage = model.DefaultWelcomeMessage(draft.Name)
	}
	if draft.Personality == "" {
		draft.Personality = model.PersonalityProfessional
	}
	if draft.ResponseStyle == "" {
		draft.ResponseStyle = model.ResponseStyleBalanced
	}

	if enhanceDraft && s.enhancer != nil {
		enhanced, err := s.enhancer.Enhance(ctx, draft)
		if err != nil {
			slog.WarnContext(ctx, "agent enhancement failed, using original draft", "error", err)
		} else {
			draft = enhanced
		}
	}

	agent := &model.Agent{
		ID:             id.New(),
		UserID:         userID,
		Name:           draft.Name,
		Description:    draft.Description,
		Personality:    draft.Personality,
		ResponseStyle:  draft.ResponseStyle,
		CompanyContext: draft.CompanyContext,
		KnowledgeBase:  draft.KnowledgeBase,
		WelcomeMessage: draft.WelcomeMessage,
		Status:         model.AgentStatusActive,
	}
	if strings.TrimSpace(draft.SystemPrompt) != "" {
		systemPrompt := draft.SystemPrompt
		agent.SystemPrompt = &systemPrompt
	}

	if err := s.agents.Create(ctx, agent); err != nil {
		slog.ErrorContext(ctx, "failed to create agent", "error", err, "user_id", userID)
		return nil, fmt.Errorf("creating agent: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{AgentID: &agent.ID})
	slog.InfoContext(ctx, "agent created", "name", agent.Name)

	return s.provision(ctx, agent), nil
}

// provision creates the remote assistant and back-fills its id. It always
// returns an agent: the provisioned one, or the input unchanged.
func (s *agentService) provision(ctx context.Context, agent *model.Agent) *model.Agent {
	if s.vapi == nil {
		slog.WarnContext(ctx, "voice API not configured, skipping assistant creation")
		return agent
	}

	assistant, err := s.vapi.CreateAssistant(ctx, vapi.BuildAssistant(vapi.AssistantSpec{
		Name:         agent.Name,
		FirstMessage: prompt.Welcome(agent),
		SystemPrompt: prompt.ForAgent(agent),
		ServerURL:    s.cfg.ServerURL(agent.ID),
		ServerSecret: s.cfg.WebhookSecret,
		Metadata: map[string]any{
			"agentId": strconv.FormatInt(agent.ID, 10),
			"userId":  strconv.FormatInt(agent.UserID, 10),
		},
	}))
	if err != nil {
		slog.ErrorContext(ctx, "failed to create remote assistant", "error", err)
		return agent
	}
	if assistant.ID == "" {
		slog.ErrorContext(ctx, "remote assistant created without an id")
		return agent
	}

	updated, err := s.agents.SetVapiAssistantID(ctx, agent.ID, assistant.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to store assistant id, deleting remote assistant",
			"error", err,
			"vapi_assistant_id", assistant.ID)
		if delErr := s.vapi.DeleteAssistant(ctx, assistant.ID); delErr != nil {
			slog.ErrorContext(ctx, "failed to delete orphaned remote assistant",
				"error", delErr,
				"vapi_assistant_id", assistant.ID)
		}
		return agent
	}

	slog.InfoContext(ctx, "remote assistant provisioned", "vapi_assistant_id", assistant.ID)
	return updated
}

func (s *agentService) Get(ctx context.Context, userID, agentID int64) (*model.Agent, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("getting agent: %w", err)
	}
	if agent.UserID != userID {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

func (s *agentService) List(ctx context.Context, userID int64) ([]model.Agent, error) {
	agents, err := s.agents.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	return agents, nil
}

// Update persists the patch and, when it changes the system prompt of a
// provisioned agent, pushes the effective prompt to the remote twin.
func (s *agentService) Update(ctx context.Context, userID, agentID int64, patch model.AgentPatch) (*model.Agent, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidAgent)
	}

	agent, err := s.Get(ctx, userID, agentID)
	if err != nil {
		return nil, err
	}

	patch.Apply(agent)
	if err := s.agents.Update(ctx, agent); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("updating agent: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{AgentID: &agent.ID})

	if patch.TouchesSystemPrompt() && agent.HasAssistant() && s.vapi != nil {
		_, err := s.vapi.UpdateAssistant(ctx, *agent.VapiAssistantID, vapi.AssistantUpdate{
			Model: vapi.BuildModel(prompt.ForAgent(agent)),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to update remote assistant prompt",
				"error", err,
				"vapi_assistant_id", *agent.VapiAssistantID)
		} else {
			slog.InfoContext(ctx, "remote assistant prompt updated", "vapi_assistant_id", *agent.VapiAssistantID)
		}
	}

	return agent, nil
}

// Delete hides the agent and releases its phone numbers. The remote twin is
// left in place.
func (s *agentService) Delete(ctx context.Context, userID, agentID int64) error {
	if _, err := s.Get(ctx, userID, agentID); err != nil {
		return err
	}

	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.PhoneBindings().DeleteByAgent(ctx, agentID); err != nil {
			return fmt.Errorf("deleting phone bindings: %w", err)
		}
		if err := sp.Agents().Delete(ctx, agentID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAgentNotFound
		}
		return fmt.Errorf("deleting agent: %w", err)
	}

	slog.InfoContext(ctx, "agent deleted", "agent_id", agentID)
	return nil
}

// Enhance returns the merged draft. When enhancement is unavailable or the
// model output cannot be parsed the original draft comes back without error;
// a failed model call is reported as ErrEnhancementFailed.
func (s *agentService) Enhance(ctx context.Context, draft model.AgentDraft) (model.AgentDraft, error) {
	if s.enhancer == nil {
		slog.WarnContext(ctx, "enhancement not configured, returning original draft")
		return draft, nil
	}
	enhanced, err := s.enhancer.Enhance(ctx, draft)
	if err != nil {
		if errors.Is(err, enhance.ErrUnparseable) {
			return draft, nil
		}
		slog.ErrorContext(ctx, "failed to enhance agent draft", "error", err)
		return draft, fmt.Errorf("%w: %v", ErrEnhancementFailed, err)
	}
	return enhanced, nil
}

func (s *agentService) EnhancePrompt(ctx context.Context, draft model.AgentDraft) (string, error) {
	if s.enhancer == nil {
		return "", fmt.Errorf("%w: %v", ErrEnhancementFailed, enhance.ErrNotConfigured)
	}
	if strings.TrimSpace(draft.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidAgent)
	}
	result, err := s.enhancer.EnhancePrompt(ctx, draft)
	if err != nil {
		slog.ErrorContext(ctx, "failed to enhance system prompt", "error", err)
		return "", fmt.Errorf("%w: %v", ErrEnhancementFailed, err)
	}
	return result, nil
}

func (s *agentService) Status() ProvisioningStatus {
	return ProvisioningStatus{
		VapiConfigured:     s.vapi != nil,
		EnhanceConfigured:  s.enhancer != nil,
		WorkflowConfigured: s.workflowConfigured,
		ServerURLTemplate:  strings.TrimRight(s.cfg.AppURL, "/") + "/api/v1/vapi/webhook/{agentId}",
	}
}

func validateDraft(d model.AgentDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAgent)
	}
	switch d.Personality {
	case model.PersonalityProfessional, model.PersonalityFriendly, model.PersonalityEmpathetic, model.PersonalityDirect, "":
	default:
		return fmt.Errorf("%w: unknown personality %q", ErrInvalidAgent, d.Personality)
	}
	switch d.ResponseStyle {
	case model.ResponseStyleBalanced, model.ResponseStyleConcise, model.ResponseStyleDetailed, "":
	default:
		return fmt.Errorf("%w: unknown response style %q", ErrInvalidAgent, d.ResponseStyle)
	}
	return nil
}
