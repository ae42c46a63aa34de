package callsession

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/service"
	"voicedesk.app/server/internal/store"
)

// CallEnder hangs up a live call through its control URL.
type CallEnder interface {
	EndCall(ctx context.Context, controlURL string) error
}

type Config struct {
	PublicKey     string
	IdleTTL       time.Duration
	ContextWindow int
	SweepInterval time.Duration
}

type Deps struct {
	Agents        service.AgentService
	Conversations store.ConversationStore
	Dispatcher    service.FunctionDispatcher
	Recorder      service.Recorder
	Calls         CallEnder // optional
	Publisher     Publisher
	Provisioning  service.ProvisioningConfig
}

// Hub owns every open call session. The session map is the only state shared
// between goroutines; everything else lives on each session's loop.
type Hub struct {
	cfg           Config
	agents        service.AgentService
	conversations store.ConversationStore
	dispatcher    service.FunctionDispatcher
	recorder      service.Recorder
	calls         CallEnder
	publisher     Publisher
	provisioning  service.ProvisioningConfig

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool

	background sync.WaitGroup
}

func NewHub(cfg Config, deps Deps) *Hub {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 20
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NewMemoryPublisher(0)
	}
	return &Hub{
		cfg:           cfg,
		agents:        deps.Agents,
		conversations: deps.Conversations,
		dispatcher:    deps.Dispatcher,
		recorder:      deps.Recorder,
		calls:         deps.Calls,
		publisher:     publisher,
		provisioning:  deps.Provisioning,
		sessions:      make(map[string]*session),
	}
}

// Open binds a new session to an agent the user owns.
func (h *Hub) Open(ctx context.Context, userID, agentID int64) (Snapshot, error) {
	if _, err := h.agents.Get(ctx, userID, agentID); err != nil {
		return Snapshot{}, err
	}

	s := newSession(h, uuid.NewString(), userID, agentID)
	snap := s.snapshot()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	h.sessions[s.id] = s
	h.mu.Unlock()

	go s.loop()

	slog.InfoContext(logger.WithLogFields(ctx, logger.LogFields{
		UserID:        &userID,
		AgentID:       &agentID,
		CallSessionID: &snap.ID,
		Component:     "voicedesk.callsession",
	}), "call session opened")
	return snap, nil
}

func (h *Hub) Snapshot(ctx context.Context, userID int64, sessionID string) (Snapshot, error) {
	s, err := h.lookup(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	v, err := s.call(ctx, func(context.Context) (any, error) {
		return s.snapshot(), nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Start prepares a call and returns what the browser's SDK needs to place it.
func (h *Hub) Start(ctx context.Context, userID int64, sessionID string) (*StartConfig, error) {
	s, err := h.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	v, err := s.call(ctx, s.start)
	if err != nil {
		return nil, err
	}
	return v.(*StartConfig), nil
}

// Apply feeds one collaborator event to the session. Function calls block
// until the workflow has answered.
func (h *Hub) Apply(ctx context.Context, userID int64, sessionID string, ev Event) (*EventResult, error) {
	s, err := h.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	v, err := s.call(ctx, func(ctx context.Context) (any, error) {
		return s.apply(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	return v.(*EventResult), nil
}

func (h *Hub) Stop(ctx context.Context, userID int64, sessionID string) (Snapshot, error) {
	s, err := h.lookup(userID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	v, err := s.call(ctx, s.requestStop)
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Stream reads transitions published for a session the user owns.
func (h *Hub) Stream(ctx context.Context, userID int64, sessionID, afterID string, block time.Duration) ([]StreamEntry, error) {
	if _, err := h.lookup(userID, sessionID); err != nil {
		return nil, err
	}
	return h.publisher.Read(ctx, sessionID, afterID, block)
}

// Close ends the session's goroutine and drops its stream.
func (h *Hub) Close(ctx context.Context, userID int64, sessionID string) error {
	s, err := h.lookup(userID, sessionID)
	if err != nil {
		return err
	}
	h.remove(ctx, s)
	return nil
}

// Run evicts idle sessions until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx, time.Now())
		}
	}
}

func (h *Hub) sweep(ctx context.Context, now time.Time) int {
	var idle []*session
	h.mu.RLock()
	for _, s := range h.sessions {
		if now.Sub(s.idleSince()) > h.cfg.IdleTTL {
			idle = append(idle, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range idle {
		slog.InfoContext(ctx, "evicting idle call session", "call_session_id", s.id)
		h.remove(ctx, s)
	}
	return len(idle)
}

// Shutdown closes every session and waits for pending recordings.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		h.remove(ctx, s)
	}

	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len is the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) lookup(userID int64, sessionID string) (*session, error) {
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	// Another user's session is reported as missing.
	if !ok || s.userID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (h *Hub) remove(ctx context.Context, s *session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()
	if !ok {
		return
	}

	s.stop()
	if err := h.publisher.Delete(context.WithoutCancel(ctx), s.id); err != nil {
		slog.WarnContext(s.logContext(ctx), "failed to delete session stream", "error", err)
	}
	slog.InfoContext(s.logContext(ctx), "call session closed")
}

// record persists a transcript turn off the request path.
func (h *Hub) record(ctx context.Context, turn service.TranscriptTurn) {
	if h.recorder == nil {
		return
	}
	ctx = logger.WithLogFields(context.WithoutCancel(ctx), logger.LogFields{ConversationID: &turn.ConversationID})

	h.spawn(func() {
		if err := h.recorder.RecordTurn(ctx, turn); err != nil {
			slog.WarnContext(ctx, "failed to record transcript turn", "error", err, "role", turn.Role)
		}
	})
}

func (h *Hub) endCall(ctx context.Context, controlURL string) {
	ctx = context.WithoutCancel(ctx)

	h.spawn(func() {
		if err := h.calls.EndCall(ctx, controlURL); err != nil {
			slog.WarnContext(ctx, "failed to end call through control url", "error", err)
		}
	})
}

// spawn runs fn in the background, tracked for Shutdown. Once the hub is
// closed Shutdown may already be waiting, so fn runs inline instead.
func (h *Hub) spawn(fn func()) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		fn()
		return
	}
	h.background.Add(1)
	h.mu.RUnlock()

	go func() {
		defer h.background.Done()
		fn()
	}()
}
