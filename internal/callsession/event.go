package callsession

import (
	"encoding/json"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/vapi"
)

// EventType mirrors the web SDK's event names.
type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventCallEnd     EventType = "call-end"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventMessage     EventType = "message"
	EventError       EventType = "error"
)

// Message types carried by a "message" event.
const (
	MessageTranscript   = "transcript"
	MessageFunctionCall = "function-call"

	TranscriptFinal = "final"
)

// Event is one callback from the browser's voice SDK, relayed to the server.
type Event struct {
	Type    EventType    `json:"type" binding:"required"`
	Message *CallMessage `json:"message,omitempty"`
	Call    *vapi.Call   `json:"call,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// CallMessage is the payload of a "message" event.
type CallMessage struct {
	Type           string             `json:"type"`
	Role           string             `json:"role,omitempty"`
	TranscriptType string             `json:"transcriptType,omitempty"`
	Transcript     string             `json:"transcript,omitempty"`
	FunctionCall   *vapi.FunctionCall `json:"functionCall,omitempty"`
}

// IsFinalUserTranscript reports whether the message is a finished user turn.
// A missing transcriptType is treated as final.
func (m *CallMessage) IsFinalUserTranscript() bool {
	if m == nil || m.Type != MessageTranscript || m.Role != string(model.MessageRoleUser) {
		return false
	}
	return m.TranscriptType == "" || m.TranscriptType == TranscriptFinal
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID             string `json:"id"`
	AgentID        int64  `json:"agent_id,string"`
	UserID         int64  `json:"user_id,string"`
	ConversationID *int64 `json:"conversation_id,string,omitempty"`
	State          State  `json:"state"`
	Speaking       bool   `json:"speaking"`
	LastError      string `json:"last_error,omitempty"`
}

// StartConfig is everything the browser needs to start the call.
type StartConfig struct {
	PublicKey          string                   `json:"public_key"`
	AssistantID        string                   `json:"assistant_id,omitempty"`
	Assistant          *vapi.Assistant          `json:"assistant,omitempty"`
	AssistantOverrides *vapi.AssistantOverrides `json:"assistantOverrides,omitempty"`
	Session            Snapshot                 `json:"session"`
}

// EventResult answers an applied event. Result is set for function calls.
type EventResult struct {
	Result  string   `json:"result,omitempty"`
	Session Snapshot `json:"session"`
}

// StreamEntry is one transition read back from the session stream.
type StreamEntry struct {
	ID         string
	Transition Transition
}

func (e StreamEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID string `json:"id"`
		Transition
	}{ID: e.ID, Transition: e.Transition})
}
