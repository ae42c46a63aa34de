package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"voicedesk.app/server/core/db/sqlc"
	"voicedesk.app/server/internal/model"
)

type workflowInteractionStore struct {
	queries *sqlc.Queries
}

func newWorkflowInteractionStore(queries *sqlc.Queries) WorkflowInteractionStore {
	return &workflowInteractionStore{queries: queries}
}

func (s *workflowInteractionStore) Create(ctx context.Context, interaction *model.WorkflowInteraction) error {
	var response []byte
	if len(interaction.WorkflowResponse) > 0 {
		response = []byte(interaction.WorkflowResponse)
	}
	row, err := s.queries.CreateWorkflowInteraction(ctx, sqlc.CreateWorkflowInteractionParams{
		ID:               interaction.ID,
		AgentID:          interaction.AgentID,
		UserMessage:      interaction.UserMessage,
		WorkflowResponse: response,
		CreatedAt:        toTimestamp(interaction.CreatedAt),
	})
	if err != nil {
		return err
	}
	*interaction = *toWorkflowInteractionModel(row)
	return nil
}

func (s *workflowInteractionStore) ListByAgent(ctx context.Context, agentID int64, limit int32) ([]model.WorkflowInteraction, error) {
	rows, err := s.queries.ListWorkflowInteractionsByAgent(ctx, sqlc.ListWorkflowInteractionsByAgentParams{
		AgentID: agentID,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.WorkflowInteraction, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toWorkflowInteractionModel(row))
	}
	return result, nil
}

func toWorkflowInteractionModel(row sqlc.WorkflowInteraction) *model.WorkflowInteraction {
	return &model.WorkflowInteraction{
		ID:               row.ID,
		AgentID:          row.AgentID,
		UserMessage:      row.UserMessage,
		WorkflowResponse: json.RawMessage(row.WorkflowResponse),
		CreatedAt:        row.CreatedAt.Time,
	}
}

func toTimestamp(value time.Time) pgtype.Timestamptz {
	if value.IsZero() {
		value = time.Now()
	}
	return pgtype.Timestamptz{Time: value, Valid: true}
}
