package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
	// MaxPages bounds how many XAUTOCLAIM pages one sweep walks.
	MaxPages int
}

// RedisReclaimer takes over records left pending by a recorder worker that
// died between XREADGROUP and XACK.
type RedisReclaimer struct {
	client   *redis.Client
	cfg      RedisReclaimerConfig
	consumer Consumer
	persist  queue.MessageProcessor

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, consumer Consumer, persist queue.MessageProcessor) *RedisReclaimer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		persist:   persist,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run sweeps every Interval until Stop is called or ctx is done.
func (r *RedisReclaimer) Run(ctx context.Context) {
	defer close(r.stoppedCh)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "voicedesk.worker.reclaimer"})

	slog.InfoContext(ctx, "reclaimer started",
		"stream", r.cfg.Stream,
		"group", r.cfg.Group,
		"min_idle", r.cfg.MinIdle)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			claimed, err := r.sweep(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "reclaim sweep failed", "error", err)
			}
			if claimed > 0 {
				slog.InfoContext(ctx, "reclaimed stale records", "count", claimed)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.stoppedCh
}

// sweep walks the pending list with XAUTOCLAIM, which transfers ownership and
// returns the entries in one round trip.
func (r *RedisReclaimer) sweep(ctx context.Context) (int, error) {
	cursor := "0-0"
	claimed := 0

	for page := 0; page < r.cfg.MaxPages; page++ {
		messages, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   r.cfg.Stream,
			Group:    r.cfg.Group,
			Consumer: r.cfg.Consumer,
			MinIdle:  r.cfg.MinIdle,
			Start:    cursor,
			Count:    r.cfg.BatchSize,
		}).Result()
		if err != nil {
			return claimed, fmt.Errorf("xautoclaim: %w", err)
		}

		for _, raw := range messages {
			claimed++
			r.retry(ctx, raw)
		}

		if next == "0-0" || next == "" {
			break
		}
		cursor = next
	}
	return claimed, nil
}

func (r *RedisReclaimer) retry(ctx context.Context, raw redis.XMessage) {
	msgID := raw.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{StreamMessageID: &msgID})

	msg, err := queue.ParseMessage(raw)
	if err != nil {
		// Unparseable entries would be claimed forever; park them.
		slog.ErrorContext(ctx, "reclaimed entry is malformed, sending to DLQ", "error", err)
		bad := queue.Message{ID: raw.ID, Raw: raw}
		if dlqErr := r.consumer.SendDLQ(ctx, bad, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to park malformed entry", "error", dlqErr)
		}
		return
	}

	if err := r.persist(ctx, msg); err != nil {
		slog.WarnContext(ctx, "reclaimed record still failing",
			"error", err,
			"task_type", msg.TaskType,
			"attempt", msg.Attempt)
		return
	}
	slog.DebugContext(ctx, "reclaimed record persisted", "task_type", msg.TaskType)
}
