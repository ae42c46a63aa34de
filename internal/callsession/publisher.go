package callsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"voicedesk.app/server/internal/queue"
)

// Publisher fans session transitions out to stream readers.
type Publisher interface {
	Publish(ctx context.Context, t Transition) error
	// Read returns entries after afterID, waiting up to block for new ones.
	// An empty afterID reads from the beginning.
	Read(ctx context.Context, sessionID, afterID string, block time.Duration) ([]StreamEntry, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewRedisPublisher writes each session to its own capped Redis stream.
func NewRedisPublisher(client *redis.Client, maxLen int64) Publisher {
	if maxLen <= 0 {
		maxLen = 200
	}
	return &redisPublisher{client: client, maxLen: maxLen}
}

func (p *redisPublisher) Publish(ctx context.Context, t Transition) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding transition: %w", err)
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: queue.SessionStreamName(t.SessionID),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{"transition": string(payload)},
	}).Err(); err != nil {
		return fmt.Errorf("publishing transition: %w", err)
	}
	return nil
}

func (p *redisPublisher) Read(ctx context.Context, sessionID, afterID string, block time.Duration) ([]StreamEntry, error) {
	if afterID == "" {
		afterID = "0"
	}
	streams, err := p.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{queue.SessionStreamName(sessionID), afterID},
		Count:   50,
		Block:   block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session stream: %w", err)
	}

	var entries []StreamEntry
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values["transition"]
			if !ok {
				continue
			}
			var t Transition
			if err := json.Unmarshal([]byte(fmt.Sprint(raw)), &t); err != nil {
				return nil, fmt.Errorf("decoding transition %s: %w", msg.ID, err)
			}
			entries = append(entries, StreamEntry{ID: msg.ID, Transition: t})
		}
	}
	return entries, nil
}

func (p *redisPublisher) Delete(ctx context.Context, sessionID string) error {
	return p.client.Del(ctx, queue.SessionStreamName(sessionID)).Err()
}

// memoryPublisher keeps streams in process for single-replica deployments
// without Redis.
type memoryPublisher struct {
	mu      sync.Mutex
	maxLen  int
	streams map[string]*memoryStream
}

type memoryStream struct {
	seq     int64
	entries []StreamEntry
	notify  chan struct{}
}

func NewMemoryPublisher(maxLen int) Publisher {
	if maxLen <= 0 {
		maxLen = 200
	}
	return &memoryPublisher{maxLen: maxLen, streams: make(map[string]*memoryStream)}
}

func (p *memoryPublisher) stream(sessionID string) *memoryStream {
	s, ok := p.streams[sessionID]
	if !ok {
		s = &memoryStream{notify: make(chan struct{})}
		p.streams[sessionID] = s
	}
	return s
}

func (p *memoryPublisher) Publish(ctx context.Context, t Transition) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stream(t.SessionID)
	s.seq++
	s.entries = append(s.entries, StreamEntry{ID: strconv.FormatInt(s.seq, 10), Transition: t})
	if len(s.entries) > p.maxLen {
		s.entries = s.entries[len(s.entries)-p.maxLen:]
	}
	close(s.notify)
	s.notify = make(chan struct{})
	return nil
}

func (p *memoryPublisher) Read(ctx context.Context, sessionID, afterID string, block time.Duration) ([]StreamEntry, error) {
	after := int64(0)
	if afterID != "" {
		parsed, err := strconv.ParseInt(afterID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid stream id %q", afterID)
		}
		after = parsed
	}

	p.mu.Lock()
	entries := p.entriesAfter(sessionID, after)
	notify := p.stream(sessionID).notify
	p.mu.Unlock()

	if len(entries) > 0 || block <= 0 {
		return entries, nil
	}

	timer := time.NewTimer(block)
	defer timer.Stop()
	select {
	case <-notify:
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entriesAfter(sessionID, after), nil
}

func (p *memoryPublisher) entriesAfter(sessionID string, after int64) []StreamEntry {
	s, ok := p.streams[sessionID]
	if !ok {
		return nil
	}
	var out []StreamEntry
	for _, e := range s.entries {
		id, _ := strconv.ParseInt(e.ID, 10, 64)
		if id > after {
			out = append(out, e)
		}
	}
	return out
}

func (p *memoryPublisher) Delete(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.streams[sessionID]; ok {
		close(s.notify)
		delete(p.streams, sessionID)
	}
	return nil
}
