package queue

import (
	"fmt"
	"time"
)

type TaskType string

const (
	TaskTypeTranscriptTurn      TaskType = "transcript_turn"
	TaskTypeWorkflowInteraction TaskType = "workflow_interaction"
)

// Task is one record to persist. RecordID is assigned at enqueue time so a
// redelivered task inserts the same row.
type Task struct {
	TaskType   TaskType
	RecordID   int64
	TraceID    *string
	Attempt    int
	OccurredAt time.Time

	// transcript_turn
	ConversationID *int64
	Role           string
	Content        string

	// workflow_interaction
	AgentID          *int64
	UserMessage      string
	WorkflowResponse string
}

// SessionStreamName is the Redis stream carrying one call session's transitions.
func SessionStreamName(sessionID string) string {
	return fmt.Sprintf("call-session:%s", sessionID)
}
