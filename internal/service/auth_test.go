package service_test

import (
	"context"
	"errors"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"voicedesk.app/server/core/config"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/service"
	"voicedesk.app/server/internal/store"
)

var _ = Describe("AuthService", func() {
	var (
		ctx      context.Context
		users    *mockUserStore
		sessions *mockSessionStore
		idp      *mockIdentityProvider
		svc      service.AuthService
	)

	cfg := config.WorkOSConfig{APIKey: "sk_test", ClientID: "client_1", RedirectURI: "http://localhost:3000/auth/callback"}

	BeforeEach(func() {
		ctx = context.Background()
		users = &mockUserStore{}
		sessions = &mockSessionStore{}
		idp = &mockIdentityProvider{}
		svc = service.NewAuthServiceWithProvider(idp, users, sessions, cfg)
	})

	Describe("GetAuthorizationURL", func() {
		It("points at AuthKit with the state", func() {
			svc = service.NewAuthService(users, sessions, cfg)

			url, err := svc.GetAuthorizationURL("xyz")
			Expect(err).NotTo(HaveOccurred())
			Expect(url).To(ContainSubstring("client_id=client_1"))
			Expect(url).To(ContainSubstring("state=xyz"))
			Expect(url).To(ContainSubstring("provider=authkit"))
		})
	})

	Describe("HandleCallback", func() {
		It("upserts the user and opens a dashboard session", func() {
			idp.authenticateFn = func(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
				Expect(opts.Code).To(Equal("code_1"))
				Expect(opts.ClientID).To(Equal("client_1"))
				return usermanagement.AuthenticateResponse{User: usermanagement.User{
					ID:        "user_01",
					Email:     "hr@example.com",
					FirstName: "Dana",
				}}, nil
			}
			users.upsertFn = func(ctx context.Context, user *model.User) error {
				Expect(user.Name).To(Equal("Dana"))
				Expect(*user.WorkOSID).To(Equal("user_01"))
				Expect(user.AvatarURL).To(BeNil())
				user.ID = 42
				return nil
			}
			var created *model.Session
			sessions.createFn = func(ctx context.Context, session *model.Session) error {
				created = session
				return nil
			}

			user, session, err := svc.HandleCallback(ctx, "code_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(42)))
			Expect(session).To(BeIdenticalTo(created))
			Expect(session.UserID).To(Equal(int64(42)))
			Expect(session.ExpiresAt).To(BeTemporally(">", time.Now().Add(6*24*time.Hour)))
		})

		It("falls back to the email when the profile has no name", func() {
			idp.authenticateFn = func(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
				return usermanagement.AuthenticateResponse{User: usermanagement.User{ID: "user_02", Email: "ops@example.com"}}, nil
			}
			var name string
			users.upsertFn = func(ctx context.Context, user *model.User) error {
				name = user.Name
				return nil
			}

			_, _, err := svc.HandleCallback(ctx, "code_2")
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("ops@example.com"))
		})

		It("rejects codes WorkOS does not accept", func() {
			idp.authenticateFn = func(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
				return usermanagement.AuthenticateResponse{}, errors.New("invalid_grant")
			}

			_, _, err := svc.HandleCallback(ctx, "stale")
			Expect(err).To(MatchError(service.ErrInvalidCode))
		})
	})

	Describe("ValidateSession", func() {
		It("returns the session's user", func() {
			sessions.getValidFn = func(ctx context.Context, id int64) (*model.Session, error) {
				return &model.Session{ID: id, UserID: 7}, nil
			}
			users.getByIDFn = func(ctx context.Context, id int64) (*model.User, error) {
				return &model.User{ID: id, Email: "hr@example.com"}, nil
			}

			user, err := svc.ValidateSession(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(7)))
		})

		It("reports expired sessions", func() {
			_, err := svc.ValidateSession(ctx, 1)
			Expect(err).To(MatchError(service.ErrSessionExpired))
		})

		It("reports missing users", func() {
			sessions.getValidFn = func(ctx context.Context, id int64) (*model.Session, error) {
				return &model.Session{ID: id, UserID: 7}, nil
			}

			_, err := svc.ValidateSession(ctx, 1)
			Expect(err).To(MatchError(service.ErrUserNotFound))
		})

		It("wraps store failures", func() {
			sessions.getValidFn = func(ctx context.Context, id int64) (*model.Session, error) {
				return nil, errors.New("db down")
			}

			_, err := svc.ValidateSession(ctx, 1)
			Expect(err).To(MatchError(ContainSubstring("getting session")))
			Expect(errors.Is(err, store.ErrNotFound)).To(BeFalse())
		})
	})

	Describe("Logout", func() {
		It("deletes the session even when it is already gone", func() {
			var deleted int64
			sessions.deleteFn = func(ctx context.Context, id int64) error {
				deleted = id
				return nil
			}

			Expect(svc.Logout(ctx, 9)).To(Succeed())
			Expect(deleted).To(Equal(int64(9)))
		})

		It("purges expired sessions best-effort", func() {
			purged := false
			sessions.deleteExpiredFn = func(ctx context.Context) error {
				purged = true
				return errors.New("db down")
			}

			Expect(svc.Logout(ctx, 9)).To(Succeed())
			Expect(purged).To(BeTrue())
		})
	})
})

type mockIdentityProvider struct {
	authenticateFn func(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error)
}

func (m *mockIdentityProvider) GetAuthorizationURL(opts usermanagement.GetAuthorizationURLOpts) (*url.URL, error) {
	return url.Parse("https://api.workos.com/user_management/authorize?state=" + opts.State)
}

func (m *mockIdentityProvider) AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, opts)
	}
	return usermanagement.AuthenticateResponse{}, errors.New("not configured")
}
