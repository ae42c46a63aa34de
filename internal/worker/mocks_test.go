package worker_test

import (
	"context"
	"sync"
	"time"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/queue"
	"voicedesk.app/server/internal/store"
	"voicedesk.app/server/internal/worker"
)

type fakeConsumer struct {
	mu       sync.Mutex
	batches  [][]queue.Message
	acked    []string
	requeued []string
	dlq      map[string]string
}

func newFakeConsumer(batches ...[]queue.Message) *fakeConsumer {
	return &fakeConsumer{batches: batches, dlq: make(map[string]string)}
}

func (c *fakeConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	c.mu.Lock()
	if len(c.batches) > 0 {
		batch := c.batches[0]
		c.batches = c.batches[1:]
		c.mu.Unlock()
		return batch, nil
	}
	c.mu.Unlock()

	select {
	case <-time.After(5 * time.Millisecond):
	case <-ctx.Done():
	}
	return nil, nil
}

func (c *fakeConsumer) Ack(ctx context.Context, msg queue.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, msg.ID)
	return nil
}

func (c *fakeConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requeued = append(c.requeued, msg.ID)
	return nil
}

func (c *fakeConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dlq[msg.ID] = errMsg
	return nil
}

func (c *fakeConsumer) Acked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.acked...)
}

func (c *fakeConsumer) Requeued() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requeued...)
}

func (c *fakeConsumer) DLQ() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.dlq))
	for k, v := range c.dlq {
		out[k] = v
	}
	return out
}

type fakeConversationStore struct {
	store.ConversationStore
	addMessageFn func(ctx context.Context, msg *model.Message) error
}

func (s *fakeConversationStore) AddMessage(ctx context.Context, msg *model.Message) error {
	return s.addMessageFn(ctx, msg)
}

type fakeInteractionStore struct {
	store.WorkflowInteractionStore
	createFn func(ctx context.Context, interaction *model.WorkflowInteraction) error
}

func (s *fakeInteractionStore) Create(ctx context.Context, interaction *model.WorkflowInteraction) error {
	return s.createFn(ctx, interaction)
}

type fakeStores struct {
	conversations *fakeConversationStore
	interactions  *fakeInteractionStore
}

func (s *fakeStores) Conversations() store.ConversationStore {
	return s.conversations
}

func (s *fakeStores) WorkflowInteractions() store.WorkflowInteractionStore {
	return s.interactions
}

type fakeTxRunner struct {
	stores *fakeStores
}

func (r *fakeTxRunner) WithTx(ctx context.Context, fn func(stores worker.StoreProvider) error) error {
	return fn(r.stores)
}

type processorFunc func(ctx context.Context, task queue.Task, stores worker.StoreProvider) error

func (f processorFunc) Process(ctx context.Context, task queue.Task, stores worker.StoreProvider) error {
	return f(ctx, task, stores)
}
