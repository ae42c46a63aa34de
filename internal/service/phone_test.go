package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/service"
)

var _ = Describe("PhoneBindingService", func() {
	const userID int64 = 77

	var (
		ctx      context.Context
		agents   *mockAgentStore
		bindings *mockPhoneBindingStore
		tx       *mockTxRunner
		svc      service.PhoneBindingService
	)

	BeforeEach(func() {
		ctx = context.Background()
		agents = &mockAgentStore{
			getByIDFn: func(ctx context.Context, id int64) (*model.Agent, error) {
				return &model.Agent{ID: id, UserID: userID}, nil
			},
		}
		bindings = &mockPhoneBindingStore{}
		tx = &mockTxRunner{provider: &mockStoreProvider{agents: agents, bindings: bindings}}
		agentSvc := service.NewAgentService(agents, tx, nil, nil, service.ProvisioningConfig{}, false)
		svc = service.NewPhoneBindingService(agentSvc, tx)
	})

	It("normalizes and binds the number", func() {
		var upserted *model.PhoneAgentBinding
		var cleared int64
		bindings.deleteByAgentFn = func(ctx context.Context, agentID int64) error {
			cleared = agentID
			return nil
		}
		bindings.upsertFn = func(ctx context.Context, b *model.PhoneAgentBinding) error {
			upserted = b
			return nil
		}

		binding, err := svc.Bind(ctx, userID, 5, "(555) 123-4567")
		Expect(err).NotTo(HaveOccurred())
		Expect(binding.PhoneNumber).To(Equal("+15551234567"))
		Expect(upserted.AgentID).To(Equal(int64(5)))
		Expect(upserted.UserID).To(Equal(userID))
		Expect(cleared).To(Equal(int64(5)))
		Expect(tx.calls).To(Equal(1))
	})

	It("refuses a number bound by another user", func() {
		bindings.getByPhoneNumberFn = func(ctx context.Context, number string) (*model.PhoneAgentBinding, error) {
			return &model.PhoneAgentBinding{PhoneNumber: number, UserID: userID + 1}, nil
		}

		_, err := svc.Bind(ctx, userID, 5, "+15551234567")
		Expect(err).To(MatchError(service.ErrPhoneNumberTaken))
	})

	It("rejects an empty number", func() {
		_, err := svc.Bind(ctx, userID, 5, " - ")
		Expect(err).To(MatchError(service.ErrInvalidPhoneNumber))
	})

	It("does not bind to another user's agent", func() {
		agents.getByIDFn = func(ctx context.Context, id int64) (*model.Agent, error) {
			return &model.Agent{ID: id, UserID: userID + 1}, nil
		}

		_, err := svc.Bind(ctx, userID, 5, "+15551234567")
		Expect(err).To(MatchError(service.ErrAgentNotFound))
		Expect(tx.calls).To(BeZero())
	})

	It("unbinds the agent's number", func() {
		var cleared int64
		bindings.deleteByAgentFn = func(ctx context.Context, agentID int64) error {
			cleared = agentID
			return nil
		}

		Expect(svc.Unbind(ctx, userID, 5)).To(Succeed())
		Expect(cleared).To(Equal(int64(5)))
	})
})
