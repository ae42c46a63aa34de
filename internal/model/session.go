package model

import "time"

// Session is a dashboard login, minted after a WorkOS code exchange.
type Session struct {
	ID              int64     `json:"id,string"`
	UserID          int64     `json:"user_id,string"`
	WorkOSSessionID *string   `json:"workos_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}
