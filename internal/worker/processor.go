package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/queue"
)

// ErrInvalidTask marks tasks that can never be persisted. They go straight to
// the DLQ instead of being retried.
var ErrInvalidTask = errors.New("invalid task")

type RecordProcessor struct{}

func NewRecordProcessor() *RecordProcessor {
	return &RecordProcessor{}
}

func (p *RecordProcessor) Process(ctx context.Context, task queue.Task, stores StoreProvider) error {
	switch task.TaskType {
	case queue.TaskTypeTranscriptTurn:
		return p.recordTurn(ctx, task, stores)
	case queue.TaskTypeWorkflowInteraction:
		return p.recordInteraction(ctx, task, stores)
	default:
		return fmt.Errorf("%w: unknown task type %q", ErrInvalidTask, task.TaskType)
	}
}

func (p *RecordProcessor) recordTurn(ctx context.Context, task queue.Task, stores StoreProvider) error {
	if task.ConversationID == nil {
		return fmt.Errorf("%w: transcript turn without conversation", ErrInvalidTask)
	}
	role := model.MessageRole(task.Role)
	if role != model.MessageRoleUser && role != model.MessageRoleAssistant {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidTask, task.Role)
	}
	if strings.TrimSpace(task.Content) == "" {
		return fmt.Errorf("%w: empty transcript turn", ErrInvalidTask)
	}

	msg := &model.Message{
		ID:             task.RecordID,
		ConversationID: *task.ConversationID,
		Role:           role,
		Content:        task.Content,
		CreatedAt:      task.OccurredAt,
	}
	if err := stores.Conversations().AddMessage(ctx, msg); err != nil {
		return fmt.Errorf("adding message: %w", err)
	}
	return nil
}

func (p *RecordProcessor) recordInteraction(ctx context.Context, task queue.Task, stores StoreProvider) error {
	if task.AgentID == nil {
		return fmt.Errorf("%w: workflow interaction without agent", ErrInvalidTask)
	}

	interaction := &model.WorkflowInteraction{
		ID:          task.RecordID,
		AgentID:     *task.AgentID,
		UserMessage: task.UserMessage,
		CreatedAt:   task.OccurredAt,
	}
	if task.WorkflowResponse != "" {
		if !json.Valid([]byte(task.WorkflowResponse)) {
			return fmt.Errorf("%w: workflow response is not JSON", ErrInvalidTask)
		}
		interaction.WorkflowResponse = json.RawMessage(task.WorkflowResponse)
	}
	if err := stores.WorkflowInteractions().Create(ctx, interaction); err != nil {
		return fmt.Errorf("creating workflow interaction: %w", err)
	}
	return nil
}
