package store

import (
	"context"

	"voicedesk.app/server/core/db/sqlc"
	"voicedesk.app/server/internal/model"
)

type phoneBindingStore struct {
	queries *sqlc.Queries
}

func newPhoneBindingStore(queries *sqlc.Queries) PhoneBindingStore {
	return &phoneBindingStore{queries: queries}
}

func (s *phoneBindingStore) GetByPhoneNumber(ctx context.Context, phoneNumber string) (*model.PhoneAgentBinding, error) {
	row, err := s.queries.GetPhoneAgentBindingByNumber(ctx, phoneNumber)
	return single(row, err, toPhoneBindingModel)
}

func (s *phoneBindingStore) Upsert(ctx context.Context, binding *model.PhoneAgentBinding) error {
	row, err := s.queries.UpsertPhoneAgentBinding(ctx, sqlc.UpsertPhoneAgentBindingParams{
		ID:          binding.ID,
		PhoneNumber: binding.PhoneNumber,
		AgentID:     binding.AgentID,
		UserID:      binding.UserID,
	})
	if err != nil {
		return err
	}
	*binding = *toPhoneBindingModel(row)
	return nil
}

func (s *phoneBindingStore) DeleteByAgent(ctx context.Context, agentID int64) error {
	return s.queries.DeletePhoneAgentBindingsByAgent(ctx, agentID)
}

func toPhoneBindingModel(row sqlc.PhoneAgentBinding) *model.PhoneAgentBinding {
	return &model.PhoneAgentBinding{
		ID:          row.ID,
		PhoneNumber: row.PhoneNumber,
		AgentID:     row.AgentID,
		UserID:      row.UserID,
		CreatedAt:   row.CreatedAt.Time,
	}
}
