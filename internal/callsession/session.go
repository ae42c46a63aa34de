package callsession

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"voicedesk.app/server/common/id"
	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/prompt"
	"voicedesk.app/server/internal/service"
	"voicedesk.app/server/internal/vapi"
)

// request runs on the session goroutine. A non-nil deferred result is run
// afterwards on the caller's goroutine so slow work never blocks the loop.
type request struct {
	ctx   context.Context
	run   func(ctx context.Context) (any, error)
	reply chan response
}

type response struct {
	value any
	err   error
}

type deferred func(ctx context.Context) (any, error)

type session struct {
	id      string
	agentID int64
	userID  int64
	hub     *Hub

	requests     chan request
	quit         chan struct{}
	done         chan struct{}
	lastActivity atomic.Int64

	// Owned by loop.
	state          State
	conversationID *int64
	speaking       bool
	lastError      string
	controlURL     string
}

func newSession(hub *Hub, sessionID string, userID, agentID int64) *session {
	s := &session{
		id:       sessionID,
		agentID:  agentID,
		userID:   userID,
		hub:      hub,
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		state:    StateIdle,
	}
	s.touch()
	return s
}

func (s *session) loop() {
	defer close(s.done)
	for {
		select {
		case req := <-s.requests:
			value, err := req.run(req.ctx)
			req.reply <- response{value: value, err: err}
		case <-s.quit:
			return
		}
	}
}

// call hands run to the loop and waits for its reply.
func (s *session) call(ctx context.Context, run func(ctx context.Context) (any, error)) (any, error) {
	s.touch()
	req := request{ctx: ctx, run: run, reply: make(chan response, 1)}

	select {
	case s.requests <- req:
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var resp response
	select {
	case resp = <-req.reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if resp.err != nil {
		return nil, resp.err
	}
	if next, ok := resp.value.(deferred); ok {
		return next(ctx)
	}
	return resp.value, nil
}

func (s *session) stop() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	<-s.done
}

func (s *session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

func (s *session) idleSince() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *session) logContext(ctx context.Context) context.Context {
	fields := logger.LogFields{
		UserID:        &s.userID,
		AgentID:       &s.agentID,
		CallSessionID: &s.id,
		Component:     "voicedesk.callsession",
	}
	if s.conversationID != nil {
		conversationID := *s.conversationID
		fields.ConversationID = &conversationID
	}
	return logger.WithLogFields(ctx, fields)
}

func (s *session) snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		AgentID:   s.agentID,
		UserID:    s.userID,
		State:     s.state,
		Speaking:  s.speaking,
		LastError: s.lastError,
	}
	if s.conversationID != nil {
		conversationID := *s.conversationID
		snap.ConversationID = &conversationID
	}
	return snap
}

// moveTo applies trigger and publishes the resulting transition.
func (s *session) moveTo(ctx context.Context, trigger Trigger, command string) error {
	to, err := Next(s.state, trigger)
	if err != nil {
		return err
	}
	s.publish(ctx, Transition{From: s.state, To: to, Trigger: trigger, Command: command})
	s.state = to
	return nil
}

func (s *session) publish(ctx context.Context, t Transition) {
	t.SessionID = s.id
	t.At = time.Now().UTC()
	if t.To == StateError || t.Trigger == TriggerError {
		t.Error = s.lastError
	}
	if err := s.hub.publisher.Publish(context.WithoutCancel(ctx), t); err != nil {
		slog.WarnContext(s.logContext(ctx), "failed to publish session transition",
			"error", err, "trigger", t.Trigger)
	}
}

// fail records err and walks the session back to Idle through Error.
func (s *session) fail(ctx context.Context, cause string) {
	s.lastError = cause
	s.speaking = false
	s.controlURL = ""
	if err := s.moveTo(ctx, TriggerError, ""); err != nil {
		return
	}
	if s.state == StateError {
		_ = s.moveTo(ctx, TriggerRecover, "")
	}
}

func (s *session) start(ctx context.Context) (any, error) {
	if err := s.moveTo(ctx, TriggerStart, ""); err != nil {
		return nil, err
	}
	ctx = s.logContext(ctx)

	cfg, err := s.prepare(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to prepare call", "error", err)
		s.fail(ctx, err.Error())
		return nil, err
	}

	slog.InfoContext(ctx, "call starting", "inline_assistant", cfg.Assistant != nil)
	return cfg, nil
}

func (s *session) prepare(ctx context.Context) (*StartConfig, error) {
	// Re-fetch so an agent deleted since the view opened cannot be called.
	agent, err := s.hub.agents.Get(ctx, s.userID, s.agentID)
	if err != nil {
		return nil, err
	}

	if s.conversationID == nil {
		conv := &model.Conversation{ID: id.New(), AgentID: s.agentID, UserID: s.userID}
		if err := s.hub.conversations.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("creating conversation: %w", err)
		}
		conversationID := conv.ID
		s.conversationID = &conversationID
	}

	recent, err := s.hub.conversations.ListRecentMessages(ctx, *s.conversationID, int32(s.hub.cfg.ContextWindow))
	if err != nil {
		return nil, fmt.Errorf("loading recent messages: %w", err)
	}
	systemPrompt := prompt.ForCall(agent, recent)

	metadata := map[string]any{
		"agentId":        strconv.FormatInt(agent.ID, 10),
		"userId":         strconv.FormatInt(s.userID, 10),
		"conversationId": strconv.FormatInt(*s.conversationID, 10),
	}

	cfg := &StartConfig{PublicKey: s.hub.cfg.PublicKey}
	if agent.HasAssistant() {
		cfg.AssistantID = *agent.VapiAssistantID
		cfg.AssistantOverrides = &vapi.AssistantOverrides{
			Model:    vapi.BuildModel(systemPrompt),
			Metadata: metadata,
		}
	} else {
		assistant := vapi.BuildAssistant(vapi.AssistantSpec{
			Name:         agent.Name,
			FirstMessage: prompt.Welcome(agent),
			SystemPrompt: systemPrompt,
			ServerURL:    s.hub.provisioning.ServerURL(agent.ID),
			ServerSecret: s.hub.provisioning.WebhookSecret,
			Metadata:     metadata,
		})
		cfg.Assistant = &assistant
		cfg.AssistantOverrides = &vapi.AssistantOverrides{Metadata: metadata}
	}
	cfg.Session = s.snapshot()
	return cfg, nil
}

func (s *session) apply(ctx context.Context, ev Event) (any, error) {
	ctx = s.logContext(ctx)

	switch ev.Type {
	case EventCallStart:
		if err := s.moveTo(ctx, TriggerCallStart, ""); err != nil {
			return nil, err
		}
		if ev.Call != nil && ev.Call.Monitor != nil {
			s.controlURL = ev.Call.Monitor.ControlURL
		}
		s.lastError = ""
		slog.InfoContext(ctx, "call started")

	case EventCallEnd:
		if err := s.moveTo(ctx, TriggerCallEnd, ""); err != nil {
			return nil, err
		}
		s.speaking = false
		s.controlURL = ""
		slog.InfoContext(ctx, "call ended")

	case EventSpeechStart, EventSpeechEnd:
		if !s.state.AcceptsCallEvents() {
			return nil, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, ev.Type, s.state)
		}
		s.speaking = ev.Type == EventSpeechStart
		s.publish(ctx, Transition{From: s.state, To: s.state, Trigger: Trigger(ev.Type)})

	case EventMessage:
		if ev.Message == nil {
			return nil, fmt.Errorf("%w: message event without message", ErrInvalidEvent)
		}
		if !s.state.AcceptsCallEvents() {
			return nil, fmt.Errorf("%w: message while %s", ErrInvalidTransition, s.state)
		}
		switch ev.Message.Type {
		case MessageTranscript:
			if ev.Message.IsFinalUserTranscript() {
				s.recordTurn(ctx, model.MessageRoleUser, ev.Message.Transcript)
			}
		case MessageFunctionCall:
			return s.functionCall(ctx, ev.Message.FunctionCall)
		}

	case EventError:
		cause := ev.Error
		if cause == "" {
			cause = "unknown call error"
		}
		slog.WarnContext(ctx, "call error reported", "cause", cause)
		s.fail(ctx, cause)

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}

	return &EventResult{Session: s.snapshot()}, nil
}

// functionCall answers in-call function calls. The workflow round trip is
// returned as deferred work so the loop keeps serving other events.
func (s *session) functionCall(ctx context.Context, fc *vapi.FunctionCall) (any, error) {
	if fc == nil {
		return nil, fmt.Errorf("%w: function-call message without functionCall", ErrInvalidEvent)
	}
	if fc.Name != vapi.FunctionProcessWithN8N {
		slog.WarnContext(ctx, "unknown function called", "function", fc.Name)
		return &EventResult{Result: service.UnknownFunctionResult(fc.Name), Session: s.snapshot()}, nil
	}

	params, err := vapi.DecodeParameters[vapi.ProcessWithN8NParams](fc.Parameters)
	if err != nil {
		slog.WarnContext(ctx, "invalid function parameters", "error", err)
		return &EventResult{Result: service.ResultWorkflowFailed, Session: s.snapshot()}, nil
	}
	if params.AgentID == "" {
		params.AgentID = strconv.FormatInt(s.agentID, 10)
	}
	if params.ConversationID == "" && s.conversationID != nil {
		params.ConversationID = strconv.FormatInt(*s.conversationID, 10)
	}

	s.recordTurn(ctx, model.MessageRoleUser, params.UserMessage)

	caller := service.Caller{AgentID: s.agentID, UserID: s.userID}
	conversationID := s.conversationID
	logCtx := ctx

	return deferred(func(ctx context.Context) (any, error) {
		outcome := s.hub.dispatcher.ProcessWithN8N(logger.WithLogFields(ctx, logger.GetLogFields(logCtx)), params, caller)
		if outcome.Err == nil && conversationID != nil {
			s.hub.record(logCtx, service.TranscriptTurn{
				ConversationID: *conversationID,
				Role:           model.MessageRoleAssistant,
				Content:        outcome.Result,
				OccurredAt:     time.Now(),
			})
		}

		snap, err := s.call(ctx, func(context.Context) (any, error) {
			return s.snapshot(), nil
		})
		if err != nil {
			return &EventResult{Result: outcome.Result}, nil
		}
		return &EventResult{Result: outcome.Result, Session: snap.(Snapshot)}, nil
	}), nil
}

func (s *session) recordTurn(ctx context.Context, role model.MessageRole, content string) {
	if s.conversationID == nil || content == "" {
		return
	}
	s.hub.record(ctx, service.TranscriptTurn{
		ConversationID: *s.conversationID,
		Role:           role,
		Content:        content,
		OccurredAt:     time.Now(),
	})
}

// requestStop moves to Ending and asks the browser, and Vapi when the control
// URL is known, to hang up.
func (s *session) requestStop(ctx context.Context) (any, error) {
	if err := s.moveTo(ctx, TriggerStop, "stop"); err != nil {
		return nil, err
	}
	ctx = s.logContext(ctx)
	slog.InfoContext(ctx, "call stop requested")

	if s.controlURL != "" && s.hub.calls != nil {
		s.hub.endCall(ctx, s.controlURL)
	}
	return s.snapshot(), nil
}
