package model

import (
	"sort"
	"time"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Conversation groups the messages of one chat view with an agent.
type Conversation struct {
	ID        int64     `json:"id,string"`
	AgentID   int64     `json:"agent_id,string"`
	UserID    int64     `json:"user_id,string"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID             int64       `json:"id,string"`
	ConversationID int64       `json:"conversation_id,string"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"created_at"`
}

// SortTranscript orders messages by creation time, breaking ties by id.
// Ids are snowflakes, so ties resolve in generation order.
func SortTranscript(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

// ConversationHistory is one past conversation with its most recent messages.
type ConversationHistory struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}
