package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"voicedesk.app/server/common"
	"voicedesk.app/server/common/logger"
	"voicedesk.app/server/internal/prompt"
	"voicedesk.app/server/internal/store"
	"voicedesk.app/server/internal/vapi"
	"voicedesk.app/server/internal/workflow"
)

// Replies spoken back to the caller.
const (
	ResultNoFunctionCall    = "No function call detected"
	ResultWorkflowFallback  = "I've processed your request through our advanced system."
	ResultWorkflowFailed    = "I encountered an error processing your request. Please try again."
	ResultDocumentAdded     = "Document has been successfully added to the knowledge base."
	ResultDocumentFailed    = "I couldn't add the document at this time. Please try again."
	resultUnknownFuncPrefix = "Unknown function: "
)

// FunctionCallInput is one server message plus what the transport knows about
// the call. Empty fields are resolved from the message where possible.
type FunctionCallInput struct {
	Message     vapi.ServerMessage
	PathAgentID string
	SessionUser *int64
}

// Caller identifies who the agent is talking to, when known.
type Caller struct {
	AgentID int64
	UserID  int64
}

func (c Caller) Known() bool {
	return c.AgentID != 0 && c.UserID != 0
}

// WorkflowOutcome is what a processWithN8N round trip produced.
type WorkflowOutcome struct {
	Result string
	Reply  *workflow.Reply
	Err    error
}

type FunctionDispatcher interface {
	// Dispatch always yields a result string; failures become apologies.
	Dispatch(ctx context.Context, in FunctionCallInput) string
	// ProcessWithN8N forwards one user request with the caller's history.
	ProcessWithN8N(ctx context.Context, params vapi.ProcessWithN8NParams, caller Caller) WorkflowOutcome
}

type functionDispatcher struct {
	workflow      workflow.Client
	history       HistoryService
	phoneBindings store.PhoneBindingStore
	recorder      Recorder
}

func NewFunctionDispatcher(
	workflowClient workflow.Client,
	history HistoryService,
	phoneBindings store.PhoneBindingStore,
	recorder Recorder,
) FunctionDispatcher {
	return &functionDispatcher{
		workflow:      workflowClient,
		history:       history,
		phoneBindings: phoneBindings,
		recorder:      recorder,
	}
}

func (d *functionDispatcher) Dispatch(ctx context.Context, in FunctionCallInput) string {
	msg := in.Message
	if msg.Type != vapi.MessageTypeFunctionCall || msg.FunctionCall == nil {
		return ResultNoFunctionCall
	}

	name := msg.FunctionCall.Name
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		FunctionName: &name,
		Component:    "voicedesk.dispatcher",
	})
	if msg.Call != nil && msg.Call.ID != "" {
		callID := msg.Call.ID
		ctx = logger.WithLogFields(ctx, logger.LogFields{CallSessionID: &callID})
	}

	slog.InfoContext(ctx, "function call received")

	switch name {
	case vapi.FunctionProcessWithN8N:
		params, err := vapi.DecodeParameters[vapi.ProcessWithN8NParams](msg.FunctionCall.Parameters)
		if err != nil {
			slog.WarnContext(ctx, "invalid function parameters", "error", err)
			return ResultWorkflowFailed
		}
		if params.AgentID == "" {
			params.AgentID = firstNonEmpty(in.PathAgentID, msg.Call.MetadataString("agentId"))
		}
		caller := d.resolveCaller(ctx, params.AgentID, in.SessionUser, msg.Call)
		if params.AgentID == "" && caller.AgentID != 0 {
			params.AgentID = strconv.FormatInt(caller.AgentID, 10)
		}
		return d.ProcessWithN8N(ctx, params, caller).Result

	case vapi.FunctionAddDocument:
		params, err := vapi.DecodeParameters[vapi.AddDocumentParams](msg.FunctionCall.Parameters)
		if err != nil {
			slog.WarnContext(ctx, "invalid function parameters", "error", err)
			return ResultDocumentFailed
		}
		if params.AgentID == "" {
			params.AgentID = firstNonEmpty(in.PathAgentID, msg.Call.MetadataString("agentId"))
		}
		return d.addDocument(ctx, params)

	default:
		slog.WarnContext(ctx, "unknown function called")
		return UnknownFunctionResult(name)
	}
}

func (d *functionDispatcher) ProcessWithN8N(ctx context.Context, params vapi.ProcessWithN8NParams, caller Caller) WorkflowOutcome {
	ctx, span := logger.StartSpan(ctx, "dispatcher.process_with_n8n",
		attribute.String("agent_id", params.AgentID),
		attribute.Bool("caller_known", caller.Known()))
	defer span.End()

	if caller.AgentID != 0 {
		ctx = logger.WithLogFields(ctx, logger.LogFields{AgentID: &caller.AgentID})
	}

	var history string
	if caller.Known() {
		histories, err := d.history.Recent(ctx, caller.AgentID, caller.UserID)
		if err != nil {
			slog.WarnContext(ctx, "failed to load conversation history", "error", err)
		} else {
			history = prompt.FormatHistory(histories)
		}
	}

	reply, err := d.workflow.AgentResponse(ctx, workflow.AgentResponseRequest{
		Text:                params.UserMessage,
		AgentID:             params.AgentID,
		Context:             params.Context,
		ConversationHistory: history,
		Timestamp:           time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "workflow request failed", "error", err)
		logger.Fail(span, err)
		return WorkflowOutcome{Result: ResultWorkflowFailed, Err: err}
	}

	if caller.AgentID != 0 {
		d.recordInteraction(ctx, caller.AgentID, params.UserMessage, reply.Raw)
	}

	return WorkflowOutcome{Result: reply.Text(ResultWorkflowFallback), Reply: reply}
}

func (d *functionDispatcher) addDocument(ctx context.Context, params vapi.AddDocumentParams) string {
	reply, err := d.workflow.AddDocument(ctx, workflow.AddDocumentRequest{
		Document:  params.Document,
		AgentID:   params.AgentID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "add document request failed", "error", err)
		return ResultDocumentFailed
	}
	if reply.Response != "" {
		return reply.Response
	}
	return ResultDocumentAdded
}

// recordInteraction is best-effort; a failed audit write never changes the reply.
func (d *functionDispatcher) recordInteraction(ctx context.Context, agentID int64, userMessage string, raw json.RawMessage) {
	if d.recorder == nil {
		return
	}
	err := d.recorder.RecordWorkflowInteraction(ctx, WorkflowRecord{
		AgentID:     agentID,
		UserMessage: userMessage,
		Response:    raw,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record workflow interaction", "error", err)
	}
}

// resolveCaller finds the agent and user behind a call: the session user,
// then call metadata, then the phone binding of the calling number.
func (d *functionDispatcher) resolveCaller(ctx context.Context, agentID string, sessionUser *int64, call *vapi.Call) Caller {
	var caller Caller
	caller.AgentID, _ = strconv.ParseInt(agentID, 10, 64)

	if sessionUser != nil {
		caller.UserID = *sessionUser
	} else if uid, err := strconv.ParseInt(call.MetadataString("userId"), 10, 64); err == nil {
		caller.UserID = uid
	}

	if caller.Known() || d.phoneBindings == nil {
		return caller
	}

	number := call.CustomerNumber()
	if number == "" {
		return caller
	}
	normalized, err := common.NormalizePhoneNumber(number)
	if err != nil {
		return caller
	}
	binding, err := d.phoneBindings.GetByPhoneNumber(ctx, normalized)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "failed to look up phone binding", "error", err)
		}
		return caller
	}
	if caller.AgentID == 0 {
		caller.AgentID = binding.AgentID
	}
	if caller.UserID == 0 && binding.AgentID == caller.AgentID {
		caller.UserID = binding.UserID
	}
	return caller
}

func UnknownFunctionResult(name string) string {
	return resultUnknownFuncPrefix + name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
