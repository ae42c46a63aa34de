package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers and workers set them once; every slog call made with that context picks them up.
type LogFields struct {
	UserID          *int64  // Authenticated dashboard user
	AgentID         *int64  // Agent the request or call is about
	ConversationID  *int64  // Conversation receiving transcript turns
	CallSessionID   *string // Call session (one open chat view)
	StreamMessageID *string // Redis stream message ID
	FunctionName    *string // In-call function being dispatched
	Component       string  // Component name (OTel semantic convention style, e.g., "voicedesk.dispatcher")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.AgentID != nil {
		result.AgentID = new.AgentID
	}
	if new.ConversationID != nil {
		result.ConversationID = new.ConversationID
	}
	if new.CallSessionID != nil {
		result.CallSessionID = new.CallSessionID
	}
	if new.StreamMessageID != nil {
		result.StreamMessageID = new.StreamMessageID
	}
	if new.FunctionName != nil {
		result.FunctionName = new.FunctionName
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{AgentID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
