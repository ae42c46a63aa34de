// Package callsession drives one open chat view's voice call through an
// explicit state machine. Each session is owned by a single goroutine.
package callsession

import (
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateActive   State = "active"
	StateEnding   State = "ending"
	StateError    State = "error"
)

// Trigger names what moved a session between states.
type Trigger string

const (
	TriggerStart       Trigger = "start"
	TriggerCallStart   Trigger = "call-start"
	TriggerCallEnd     Trigger = "call-end"
	TriggerStop        Trigger = "stop"
	TriggerError       Trigger = "error"
	TriggerRecover     Trigger = "recover"
	TriggerSpeechStart Trigger = "speech-start"
	TriggerSpeechEnd   Trigger = "speech-end"
)

var (
	ErrSessionNotFound   = errors.New("call session not found")
	ErrSessionClosed     = errors.New("call session closed")
	ErrInvalidTransition = errors.New("invalid call session transition")
	ErrInvalidEvent      = errors.New("invalid call session event")
)

var transitions = map[State]map[Trigger]State{
	StateIdle: {
		TriggerStart: StateStarting,
	},
	StateStarting: {
		TriggerCallStart: StateActive,
		TriggerCallEnd:   StateIdle,
		TriggerStop:      StateEnding,
		TriggerError:     StateError,
	},
	StateActive: {
		TriggerCallEnd: StateIdle,
		TriggerStop:    StateEnding,
		TriggerError:   StateError,
	},
	StateEnding: {
		TriggerCallEnd: StateIdle,
		TriggerError:   StateIdle,
	},
	StateError: {
		TriggerRecover: StateIdle,
	},
}

// Next returns the state a trigger leads to, or ErrInvalidTransition.
func Next(from State, trigger Trigger) (State, error) {
	if to, ok := transitions[from][trigger]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, from)
}

// InCall reports whether the collaborator may be sending call events.
func (s State) InCall() bool {
	return s == StateStarting || s == StateActive
}

// AcceptsCallEvents reports whether speech and message events are still
// expected. A stopping call keeps delivering its last transcripts and
// function calls until call-end.
func (s State) AcceptsCallEvents() bool {
	return s.InCall() || s == StateEnding
}

// Transition is published on the session stream. Command tells the browser
// to act, e.g. "stop" to hang up its side of the call.
type Transition struct {
	SessionID string    `json:"session_id"`
	From      State     `json:"from"`
	To        State     `json:"to"`
	Trigger   Trigger   `json:"trigger"`
	Command   string    `json:"command,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}
