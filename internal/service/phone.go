package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voicedesk.app/server/common"
	"voicedesk.app/server/common/id"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/store"
)

var (
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrPhoneNumberTaken   = errors.New("phone number is bound to another user")
)

// PhoneBindingService routes inbound phone numbers to agents. An agent has at
// most one number.
type PhoneBindingService interface {
	Bind(ctx context.Context, userID, agentID int64, phoneNumber string) (*model.PhoneAgentBinding, error)
	Unbind(ctx context.Context, userID, agentID int64) error
}

type phoneBindingService struct {
	agents   AgentService
	txRunner TxRunner
}

func NewPhoneBindingService(agents AgentService, txRunner TxRunner) PhoneBindingService {
	return &phoneBindingService{agents: agents, txRunner: txRunner}
}

func (s *phoneBindingService) Bind(ctx context.Context, userID, agentID int64, phoneNumber string) (*model.PhoneAgentBinding, error) {
	normalized, err := common.NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhoneNumber, err)
	}

	if _, err := s.agents.Get(ctx, userID, agentID); err != nil {
		return nil, err
	}

	binding := &model.PhoneAgentBinding{
		ID:          id.New(),
		PhoneNumber: normalized,
		AgentID:     agentID,
		UserID:      userID,
	}

	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		existing, err := sp.PhoneBindings().GetByPhoneNumber(ctx, normalized)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("getting phone binding: %w", err)
		}
		if existing != nil && existing.UserID != userID {
			return ErrPhoneNumberTaken
		}
		if err := sp.PhoneBindings().DeleteByAgent(ctx, agentID); err != nil {
			return fmt.Errorf("clearing agent bindings: %w", err)
		}
		return sp.PhoneBindings().Upsert(ctx, binding)
	})
	if err != nil {
		if errors.Is(err, ErrPhoneNumberTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("binding phone number: %w", err)
	}

	slog.InfoContext(ctx, "phone number bound", "agent_id", agentID, "phone_number", normalized)
	return binding, nil
}

func (s *phoneBindingService) Unbind(ctx context.Context, userID, agentID int64) error {
	if _, err := s.agents.Get(ctx, userID, agentID); err != nil {
		return err
	}
	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		return sp.PhoneBindings().DeleteByAgent(ctx, agentID)
	})
	if err != nil {
		return fmt.Errorf("unbinding phone number: %w", err)
	}
	return nil
}
