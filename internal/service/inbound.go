package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"voicedesk.app/server/common"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/prompt"
	"voicedesk.app/server/internal/store"
	"voicedesk.app/server/internal/vapi"
)

// InboundService answers the voice API's request for an assistant when a
// phone call arrives.
type InboundService interface {
	AssistantFor(ctx context.Context, callerNumber string) vapi.Assistant
}

type inboundService struct {
	phoneBindings store.PhoneBindingStore
	agents        store.AgentStore
	cfg           ProvisioningConfig
}

func NewInboundService(phoneBindings store.PhoneBindingStore, agents store.AgentStore, cfg ProvisioningConfig) InboundService {
	return &inboundService{phoneBindings: phoneBindings, agents: agents, cfg: cfg}
}

// genericAgent stands in when the number is not bound to any agent.
func genericAgent() *model.Agent {
	return &model.Agent{
		Name:          "HR Assistant",
		Personality:   model.PersonalityProfessional,
		ResponseStyle: model.ResponseStyleBalanced,
		KnowledgeBase: "Default HR knowledge",
	}
}

// AssistantFor never fails: unbound numbers get the generic agent and lookup
// errors get the degraded assistant.
func (s *inboundService) AssistantFor(ctx context.Context, callerNumber string) vapi.Assistant {
	agent, err := s.lookup(ctx, callerNumber)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve agent for inbound call", "error", err)
		return vapi.DegradedAssistant()
	}

	spec := vapi.AssistantSpec{
		Name:         agent.Name,
		FirstMessage: fmt.Sprintf("Hello! This is %s from HR. How can I help you today?", agent.Name),
		SystemPrompt: prompt.ForInboundCall(agent, callerNumber),
		ServerSecret: s.cfg.WebhookSecret,
		Voice:        vapi.PhoneVoice(),
	}
	if agent.ID != 0 {
		spec.ServerURL = s.cfg.ServerURL(agent.ID)
		spec.Metadata = map[string]any{
			"agentId": strconv.FormatInt(agent.ID, 10),
			"userId":  strconv.FormatInt(agent.UserID, 10),
		}
	} else {
		spec.ServerURL = s.cfg.FunctionsURL()
	}

	slog.InfoContext(ctx, "inbound call routed", "agent_id", agent.ID, "agent_name", agent.Name)
	return vapi.BuildAssistant(spec)
}

func (s *inboundService) lookup(ctx context.Context, callerNumber string) (*model.Agent, error) {
	normalized, err := common.NormalizePhoneNumber(callerNumber)
	if err != nil {
		return genericAgent(), nil
	}

	binding, err := s.phoneBindings.GetByPhoneNumber(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return genericAgent(), nil
		}
		return nil, fmt.Errorf("getting phone binding: %w", err)
	}

	agent, err := s.agents.GetByID(ctx, binding.AgentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return genericAgent(), nil
		}
		return nil, fmt.Errorf("getting agent: %w", err)
	}
	return agent, nil
}
