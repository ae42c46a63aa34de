package worker_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/queue"
	"voicedesk.app/server/internal/worker"
)

func turnMessage(msgID string, attempt int) queue.Message {
	conversationID := int64(100)
	return queue.Message{
		ID: msgID,
		Task: queue.Task{
			TaskType:       queue.TaskTypeTranscriptTurn,
			RecordID:       555,
			Attempt:        attempt,
			OccurredAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			ConversationID: &conversationID,
			Role:           "user",
			Content:        "How do I enroll in benefits?",
		},
	}
}

var _ = Describe("Worker", func() {
	var (
		ctx      context.Context
		mu       sync.Mutex
		messages []model.Message
		stores   *fakeStores
		txRunner *fakeTxRunner
	)

	BeforeEach(func() {
		ctx = context.Background()
		messages = nil
		stores = &fakeStores{
			conversations: &fakeConversationStore{
				addMessageFn: func(ctx context.Context, msg *model.Message) error {
					mu.Lock()
					defer mu.Unlock()
					messages = append(messages, *msg)
					return nil
				},
			},
			interactions: &fakeInteractionStore{
				createFn: func(ctx context.Context, interaction *model.WorkflowInteraction) error {
					return nil
				},
			},
		}
		txRunner = &fakeTxRunner{stores: stores}
	})

	Describe("ProcessMessage", func() {
		It("persists a transcript turn under its record id and acks it", func() {
			consumer := newFakeConsumer()
			w := worker.New(consumer, txRunner, worker.NewRecordProcessor(), worker.Config{})

			Expect(w.ProcessMessage(ctx, turnMessage("1-0", 1))).To(Succeed())

			Expect(messages).To(HaveLen(1))
			Expect(messages[0].ID).To(Equal(int64(555)))
			Expect(messages[0].ConversationID).To(Equal(int64(100)))
			Expect(messages[0].Role).To(Equal(model.MessageRoleUser))
			Expect(messages[0].CreatedAt).To(Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
			Expect(consumer.Acked()).To(ConsistOf("1-0"))
		})

		It("persists a workflow interaction with its raw response", func() {
			var created *model.WorkflowInteraction
			stores.interactions.createFn = func(ctx context.Context, interaction *model.WorkflowInteraction) error {
				created = interaction
				return nil
			}
			agentID := int64(7)
			consumer := newFakeConsumer()
			w := worker.New(consumer, txRunner, worker.NewRecordProcessor(), worker.Config{})

			err := w.ProcessMessage(ctx, queue.Message{
				ID: "2-0",
				Task: queue.Task{
					TaskType:         queue.TaskTypeWorkflowInteraction,
					RecordID:         777,
					AgentID:          &agentID,
					UserMessage:      "What is my PTO balance?",
					WorkflowResponse: `{"response":"12 days"}`,
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created).NotTo(BeNil())
			Expect(created.ID).To(Equal(int64(777)))
			Expect(created.AgentID).To(Equal(agentID))
			Expect(string(created.WorkflowResponse)).To(MatchJSON(`{"response":"12 days"}`))
			Expect(consumer.Acked()).To(ConsistOf("2-0"))
		})

		It("acks redelivered records that were already written", func() {
			stores.conversations.addMessageFn = func(ctx context.Context, msg *model.Message) error {
				return &pgconn.PgError{Code: "23505"}
			}
			consumer := newFakeConsumer()
			w := worker.New(consumer, txRunner, worker.NewRecordProcessor(), worker.Config{})

			Expect(w.ProcessMessage(ctx, turnMessage("3-0", 2))).To(Succeed())
			Expect(consumer.Acked()).To(ConsistOf("3-0"))
		})

		It("sends tasks that can never be written straight to the DLQ", func() {
			consumer := newFakeConsumer()
			w := worker.New(consumer, txRunner, worker.NewRecordProcessor(), worker.Config{})

			msg := turnMessage("4-0", 1)
			msg.Role = "system"
			Expect(w.ProcessMessage(ctx, msg)).To(Succeed())
			Expect(consumer.DLQ()).To(HaveKey("4-0"))
			Expect(consumer.Acked()).To(BeEmpty())
			Expect(messages).To(BeEmpty())
		})

		It("leaves the message unacked when the store fails", func() {
			stores.conversations.addMessageFn = func(ctx context.Context, msg *model.Message) error {
				return errors.New("connection reset")
			}
			consumer := newFakeConsumer()
			w := worker.New(consumer, txRunner, worker.NewRecordProcessor(), worker.Config{})

			err := w.ProcessMessage(ctx, turnMessage("5-0", 1))
			Expect(err).To(MatchError(ContainSubstring("connection reset")))
			Expect(consumer.Acked()).To(BeEmpty())
		})
	})

	Describe("Run", func() {
		failing := processorFunc(func(ctx context.Context, task queue.Task, stores worker.StoreProvider) error {
			return errors.New("database unavailable")
		})

		It("requeues failures below the attempt limit", func() {
			consumer := newFakeConsumer([]queue.Message{turnMessage("6-0", 1)})
			w := worker.New(consumer, txRunner, failing, worker.Config{MaxAttempts: 3})

			go func() { _ = w.Run(ctx) }()
			Eventually(consumer.Requeued).Should(ConsistOf("6-0"))
			w.Stop()
			Expect(consumer.DLQ()).To(BeEmpty())
		})

		It("dead-letters failures at the attempt limit", func() {
			consumer := newFakeConsumer([]queue.Message{turnMessage("7-0", 3)})
			w := worker.New(consumer, txRunner, failing, worker.Config{MaxAttempts: 3})

			go func() { _ = w.Run(ctx) }()
			Eventually(consumer.DLQ).Should(HaveKeyWithValue("7-0", ContainSubstring("database unavailable")))
			w.Stop()
			Expect(consumer.Requeued()).To(BeEmpty())
		})

		It("recovers from a panicking processor", func() {
			panicking := processorFunc(func(ctx context.Context, task queue.Task, stores worker.StoreProvider) error {
				panic("nil conversation")
			})
			consumer := newFakeConsumer([]queue.Message{turnMessage("8-0", 1)})
			w := worker.New(consumer, txRunner, panicking, worker.Config{})

			go func() { _ = w.Run(ctx) }()
			Eventually(consumer.Requeued).Should(ConsistOf("8-0"))
			w.Stop()
		})

		It("returns when the context is cancelled", func() {
			runCtx, cancel := context.WithCancel(ctx)
			w := worker.New(newFakeConsumer(), txRunner, worker.NewRecordProcessor(), worker.Config{})

			done := make(chan error, 1)
			go func() { done <- w.Run(runCtx) }()
			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
