package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"voicedesk.app/server/core/db/sqlc"
	"voicedesk.app/server/internal/model"
)

type conversationStore struct {
	queries *sqlc.Queries
}

func newConversationStore(queries *sqlc.Queries) ConversationStore {
	return &conversationStore{queries: queries}
}

func (s *conversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	row, err := s.queries.GetConversation(ctx, id)
	return single(row, err, toConversationModel)
}

func (s *conversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	row, err := s.queries.CreateConversation(ctx, sqlc.CreateConversationParams{
		ID:      conv.ID,
		AgentID: conv.AgentID,
		UserID:  conv.UserID,
	})
	if err != nil {
		return err
	}
	*conv = *toConversationModel(row)
	return nil
}

func (s *conversationStore) ListRecent(ctx context.Context, agentID, userID int64, limit int32) ([]model.Conversation, error) {
	rows, err := s.queries.ListRecentConversations(ctx, sqlc.ListRecentConversationsParams{
		AgentID: agentID,
		UserID:  userID,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.Conversation, 0, len(rows))
	for _, row := range rows {
		result = append(result, *toConversationModel(row))
	}
	return result, nil
}

// AddMessage keeps the caller's CreatedAt when set, since turns recorded through
// the queue land after the moment they were spoken.
func (s *conversationStore) AddMessage(ctx context.Context, msg *model.Message) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      pgtype.Timestamptz{Time: createdAt, Valid: true},
	})
	if err != nil {
		return err
	}
	*msg = *toMessageModel(row)
	return nil
}

func (s *conversationStore) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	rows, err := s.queries.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return toMessageModels(rows), nil
}

func (s *conversationStore) ListRecentMessages(ctx context.Context, conversationID int64, limit int32) ([]model.Message, error) {
	rows, err := s.queries.ListRecentMessages(ctx, sqlc.ListRecentMessagesParams{
		ConversationID: conversationID,
		Limit:          limit,
	})
	if err != nil {
		return nil, err
	}
	return toMessageModels(rows), nil
}

func toConversationModel(row sqlc.Conversation) *model.Conversation {
	return &model.Conversation{
		ID:        row.ID,
		AgentID:   row.AgentID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt.Time,
	}
}

func toMessageModel(row sqlc.Message) *model.Message {
	return &model.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Role:           model.MessageRole(row.Role),
		Content:        row.Content,
		CreatedAt:      row.CreatedAt.Time,
	}
}

func toMessageModels(rows []sqlc.Message) []model.Message {
	result := make([]model.Message, len(rows))
	for i, row := range rows {
		result[i] = *toMessageModel(row)
	}
	return result
}
