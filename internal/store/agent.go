package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"voicedesk.app/server/core/db/sqlc"
	"voicedesk.app/server/internal/model"
)

type agentStore struct {
	queries *sqlc.Queries
}

func newAgentStore(queries *sqlc.Queries) AgentStore {
	return &agentStore{queries: queries}
}

func (s *agentStore) GetByID(ctx context.Context, id int64) (*model.Agent, error) {
	row, err := s.queries.GetAgent(ctx, id)
	return single(row, err, toAgentModel)
}

func (s *agentStore) ListByUser(ctx context.Context, userID int64) ([]model.Agent, error) {
	rows, err := s.queries.ListAgentsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]model.Agent, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toAgentModel(row))
	}
	return result, nil
}

func (s *agentStore) Create(ctx context.Context, agent *model.Agent) error {
	row, err := s.queries.CreateAgent(ctx, sqlc.CreateAgentParams{
		ID:             agent.ID,
		UserID:         agent.UserID,
		Name:           agent.Name,
		Description:    agent.Description,
		Personality:    string(agent.Personality),
		ResponseStyle:  string(agent.ResponseStyle),
		CompanyContext: agent.CompanyContext,
		KnowledgeBase:  agent.KnowledgeBase,
		WelcomeMessage: agent.WelcomeMessage,
		SystemPrompt:   agent.SystemPrompt,
		Status:         string(agent.Status),
	})
	if err != nil {
		return err
	}
	*agent = *toAgentModel(row)
	return nil
}

func (s *agentStore) Update(ctx context.Context, agent *model.Agent) error {
	row, err := s.queries.UpdateAgent(ctx, sqlc.UpdateAgentParams{
		ID:             agent.ID,
		Name:           agent.Name,
		Description:    agent.Description,
		Personality:    string(agent.Personality),
		ResponseStyle:  string(agent.ResponseStyle),
		CompanyContext: agent.CompanyContext,
		KnowledgeBase:  agent.KnowledgeBase,
		WelcomeMessage: agent.WelcomeMessage,
		SystemPrompt:   agent.SystemPrompt,
		Status:         string(agent.Status),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	*agent = *toAgentModel(row)
	return nil
}

func (s *agentStore) SetVapiAssistantID(ctx context.Context, id int64, assistantID string) (*model.Agent, error) {
	row, err := s.queries.SetAgentVapiAssistantID(ctx, sqlc.SetAgentVapiAssistantIDParams{
		ID:              id,
		VapiAssistantID: &assistantID,
	})
	return single(row, err, toAgentModel)
}

func (s *agentStore) Delete(ctx context.Context, id int64) error {
	affected, err := s.queries.SoftDeleteAgent(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func toAgentModel(row sqlc.Agent) *model.Agent {
	return &model.Agent{
		ID:              row.ID,
		UserID:          row.UserID,
		Name:            row.Name,
		Description:     row.Description,
		Personality:     model.Personality(row.Personality),
		ResponseStyle:   model.ResponseStyle(row.ResponseStyle),
		CompanyContext:  row.CompanyContext,
		KnowledgeBase:   row.KnowledgeBase,
		WelcomeMessage:  row.WelcomeMessage,
		SystemPrompt:    row.SystemPrompt,
		VapiAssistantID: row.VapiAssistantID,
		Status:          model.AgentStatus(row.Status),
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}
