package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voicedesk.app/server/common/id"
	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/queue"
	"voicedesk.app/server/internal/store"
)

// TranscriptTurn is one spoken or typed turn to append to a conversation.
type TranscriptTurn struct {
	ConversationID int64
	Role           model.MessageRole
	Content        string
	OccurredAt     time.Time
}

// WorkflowRecord is the audit entry for one workflow round trip.
type WorkflowRecord struct {
	AgentID     int64
	UserMessage string
	Response    json.RawMessage
	OccurredAt  time.Time
}

// Recorder persists transcript turns and workflow audit records. Callers treat
// failures as best-effort.
type Recorder interface {
	RecordTurn(ctx context.Context, turn TranscriptTurn) error
	RecordWorkflowInteraction(ctx context.Context, record WorkflowRecord) error
}

type directRecorder struct {
	conversations store.ConversationStore
	interactions  store.WorkflowInteractionStore
}

// NewDirectRecorder writes straight to Postgres.
func NewDirectRecorder(conversations store.ConversationStore, interactions store.WorkflowInteractionStore) Recorder {
	return &directRecorder{conversations: conversations, interactions: interactions}
}

func (r *directRecorder) RecordTurn(ctx context.Context, turn TranscriptTurn) error {
	msg := &model.Message{
		ID:             id.New(),
		ConversationID: turn.ConversationID,
		Role:           turn.Role,
		Content:        turn.Content,
		CreatedAt:      turn.OccurredAt,
	}
	if err := r.conversations.AddMessage(ctx, msg); err != nil {
		return fmt.Errorf("adding message: %w", err)
	}
	return nil
}

func (r *directRecorder) RecordWorkflowInteraction(ctx context.Context, record WorkflowRecord) error {
	interaction := &model.WorkflowInteraction{
		ID:               id.New(),
		AgentID:          record.AgentID,
		UserMessage:      record.UserMessage,
		WorkflowResponse: record.Response,
		CreatedAt:        record.OccurredAt,
	}
	if err := r.interactions.Create(ctx, interaction); err != nil {
		return fmt.Errorf("creating workflow interaction: %w", err)
	}
	return nil
}

type queueRecorder struct {
	producer queue.Producer
}

// NewQueueRecorder enqueues records for the recorder worker.
func NewQueueRecorder(producer queue.Producer) Recorder {
	return &queueRecorder{producer: producer}
}

func (r *queueRecorder) RecordTurn(ctx context.Context, turn TranscriptTurn) error {
	conversationID := turn.ConversationID
	return r.producer.Enqueue(ctx, queue.Task{
		TaskType:       queue.TaskTypeTranscriptTurn,
		RecordID:       id.New(),
		TraceID:        logger.TraceID(ctx),
		OccurredAt:     occurredAt(turn.OccurredAt),
		ConversationID: &conversationID,
		Role:           string(turn.Role),
		Content:        turn.Content,
	})
}

func (r *queueRecorder) RecordWorkflowInteraction(ctx context.Context, record WorkflowRecord) error {
	agentID := record.AgentID
	return r.producer.Enqueue(ctx, queue.Task{
		TaskType:         queue.TaskTypeWorkflowInteraction,
		RecordID:         id.New(),
		TraceID:          logger.TraceID(ctx),
		OccurredAt:       occurredAt(record.OccurredAt),
		AgentID:          &agentID,
		UserMessage:      record.UserMessage,
		WorkflowResponse: string(record.Response),
	})
}

func occurredAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
