package worker

import (
	"context"

	"voicedesk.app/server/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// TaskProcessor persists one task with stores bound to the worker's transaction.
type TaskProcessor interface {
	Process(ctx context.Context, task queue.Task, stores StoreProvider) error
}
