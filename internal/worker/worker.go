package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/queue"
	"voicedesk.app/server/internal/store"
)

// Mirrors service.StoreProvider - defined here to avoid import cycles.
type StoreProvider interface {
	Conversations() store.ConversationStore
	WorkflowInteractions() store.WorkflowInteractionStore
}

// Mirrors service.TxRunner - defined here to avoid import cycles.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type Config struct {
	MaxAttempts  int
	ErrorBackoff time.Duration
}

// Worker persists transcript turns and workflow audit records enqueued by the
// server.
type Worker struct {
	consumer  Consumer
	txRunner  TxRunner
	processor TaskProcessor
	cfg       Config

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, txRunner TxRunner, processor TaskProcessor, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:  consumer,
		txRunner:  txRunner,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "voicedesk.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-time.After(w.cfg.ErrorBackoff):
				case <-w.stopCh:
				case <-ctx.Done():
				}
			}
		}
	}
}

// Stop signals Run to return and waits for it.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"task_type", msg.TaskType)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage persists one task and acks it. Exported so it can be reused
// by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		StreamMessageID: &msgID,
		ConversationID:  msg.ConversationID,
		AgentID:         msg.AgentID,
	})

	var traceID string
	if msg.TraceID != nil {
		traceID = *msg.TraceID
	}
	ctx, span := logger.ContinueTrace(ctx, traceID, "worker.persist_record",
		attribute.String("task_type", string(msg.TaskType)),
		attribute.Int("attempt", msg.Attempt))
	defer span.End()

	slog.DebugContext(ctx, "processing message",
		"task_type", msg.TaskType,
		"record_id", msg.RecordID,
		"attempt", msg.Attempt)

	err := w.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		return w.processor.Process(ctx, msg.Task, sp)
	})
	if err != nil && !store.IsUniqueViolation(err) {
		logger.Fail(span, err)
	}

	switch {
	case err == nil:
	case store.IsUniqueViolation(err):
		// A redelivered task carries the same record id as the row it already wrote.
		slog.InfoContext(ctx, "record already persisted, skipping", "record_id", msg.RecordID)
	case errors.Is(err, ErrInvalidTask):
		slog.ErrorContext(ctx, "task cannot be persisted, sending to DLQ", "error", err)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			return fmt.Errorf("sending invalid task to dlq: %w", dlqErr)
		}
		return nil
	default:
		// Not acked; the message is requeued or reclaimed.
		return fmt.Errorf("persisting record: %w", err)
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Safe to leave pending: the reclaimer retries and hits the duplicate path.
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
