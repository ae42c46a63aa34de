package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"voicedesk.app/server/common/id"
	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/core/config"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/store"
)

const dashboardSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCode    = errors.New("invalid authorization code")
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionExpired = errors.New("session expired")
)

// IdentityProvider is the slice of WorkOS user management used for sign-in.
// *usermanagement.Client satisfies it.
type IdentityProvider interface {
	GetAuthorizationURL(opts usermanagement.GetAuthorizationURLOpts) (*url.URL, error)
	AuthenticateWithCode(ctx context.Context, opts usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error)
}

// AuthService signs HR staff into the dashboard through WorkOS AuthKit. The
// dashboard session is ours; WorkOS only vouches for the identity.
type AuthService interface {
	GetAuthorizationURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error)
	ValidateSession(ctx context.Context, sessionID int64) (*model.User, error)
	Logout(ctx context.Context, sessionID int64) error
}

type authService struct {
	idp      IdentityProvider
	users    store.UserStore
	sessions store.SessionStore
	cfg      config.WorkOSConfig
}

func NewAuthService(users store.UserStore, sessions store.SessionStore, cfg config.WorkOSConfig) AuthService {
	return NewAuthServiceWithProvider(usermanagement.NewClient(cfg.APIKey), users, sessions, cfg)
}

func NewAuthServiceWithProvider(idp IdentityProvider, users store.UserStore, sessions store.SessionStore, cfg config.WorkOSConfig) AuthService {
	return &authService{idp: idp, users: users, sessions: sessions, cfg: cfg}
}

func (s *authService) GetAuthorizationURL(state string) (string, error) {
	u, err := s.idp.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    s.cfg.ClientID,
		RedirectURI: s.cfg.RedirectURI,
		State:       state,
		Provider:    "authkit",
	})
	if err != nil {
		return "", fmt.Errorf("building authorization url: %w", err)
	}
	return u.String(), nil
}

// HandleCallback trades an AuthKit code for a local user and a fresh
// dashboard session.
func (s *authService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "voicedesk.auth"})

	resp, err := s.idp.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: s.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		slog.WarnContext(ctx, "authkit code exchange failed", "error", err)
		return nil, nil, ErrInvalidCode
	}

	user := userFromIdentity(resp.User)
	if err := s.users.UpsertByWorkOSID(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("upserting user: %w", err)
	}

	session := &model.Session{
		ID:        id.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(dashboardSessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("creating session: %w", err)
	}

	slog.InfoContext(logger.WithLogFields(ctx, logger.LogFields{UserID: &user.ID}),
		"dashboard sign-in", "session_id", session.ID)
	return user, session, nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	session, err := s.sessions.GetValid(ctx, sessionID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrSessionExpired
	case err != nil:
		return nil, fmt.Errorf("getting session: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

// Logout drops the session and sweeps any expired ones while it is there.
func (s *authService) Logout(ctx context.Context, sessionID int64) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if err := s.sessions.DeleteExpired(ctx); err != nil {
		slog.WarnContext(ctx, "failed to purge expired sessions", "error", err)
	}
	slog.InfoContext(ctx, "dashboard sign-out", "session_id", sessionID)
	return nil
}

// userFromIdentity maps a WorkOS profile onto a user row. The id is only used
// when the upsert inserts.
func userFromIdentity(u usermanagement.User) *model.User {
	user := &model.User{
		ID:       id.New(),
		Name:     displayName(u),
		Email:    u.Email,
		WorkOSID: &u.ID,
	}
	if u.ProfilePictureURL != "" {
		avatar := u.ProfilePictureURL
		user.AvatarURL = &avatar
	}
	return user
}

func displayName(u usermanagement.User) string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}
