package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"voicedesk.app/server/internal/model"
	"voicedesk.app/server/internal/store"
)

const (
	historyConversations = 3
	historyMessages      = 5
	memoryQuestions      = 5
)

// MemoryContext summarizes what a caller talked about with an agent before.
type MemoryContext struct {
	TotalConversations int               `json:"totalConversations"`
	RecentTopics       []string          `json:"recentTopics"`
	UserPreferences    map[string]string `json:"userPreferences"`
	PreviousQuestions  []string          `json:"previousQuestions"`
}

type HistoryService interface {
	// Recent returns the caller's last conversations with the agent, oldest
	// first, each with its latest messages in transcript order.
	Recent(ctx context.Context, agentID, userID int64) ([]model.ConversationHistory, error)
	Memory(ctx context.Context, agentID, userID int64) (*MemoryContext, error)
}

type historyService struct {
	conversations store.ConversationStore
}

func NewHistoryService(conversations store.ConversationStore) HistoryService {
	return &historyService{conversations: conversations}
}

func (s *historyService) Recent(ctx context.Context, agentID, userID int64) ([]model.ConversationHistory, error) {
	return s.load(ctx, agentID, userID, historyMessages)
}

func (s *historyService) Memory(ctx context.Context, agentID, userID int64) (*MemoryContext, error) {
	histories, err := s.load(ctx, agentID, userID, 0)
	if err != nil {
		return nil, err
	}
	return BuildMemoryContext(histories), nil
}

// load reads the last conversations. messageLimit 0 loads every message.
func (s *historyService) load(ctx context.Context, agentID, userID int64, messageLimit int32) ([]model.ConversationHistory, error) {
	convs, err := s.conversations.ListRecent(ctx, agentID, userID, historyConversations)
	if err != nil {
		return nil, fmt.Errorf("listing recent conversations: %w", err)
	}

	histories := make([]model.ConversationHistory, 0, len(convs))
	for i := len(convs) - 1; i >= 0; i-- {
		conv := convs[i]
		var messages []model.Message
		if messageLimit > 0 {
			messages, err = s.conversations.ListRecentMessages(ctx, conv.ID, messageLimit)
		} else {
			messages, err = s.conversations.ListMessages(ctx, conv.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("listing messages for conversation %d: %w", conv.ID, err)
		}
		model.SortTranscript(messages)
		histories = append(histories, model.ConversationHistory{Conversation: conv, Messages: messages})
	}
	return histories, nil
}

var (
	memoryTopics = []struct{ keyword, topic string }{
		{"vacation", "vacation policy"},
		{"benefits", "benefits"},
		{"payroll", "payroll"},
		{"insurance", "insurance"},
	}
	childrenPattern = regexp.MustCompile(`(?i)(\d+)\s*(kids?|children)`)
)

// BuildMemoryContext extracts topics, preferences and questions from
// histories ordered oldest first. Later mentions of a preference win.
func BuildMemoryContext(histories []model.ConversationHistory) *MemoryContext {
	mc := &MemoryContext{
		TotalConversations: len(histories),
		RecentTopics:       []string{},
		UserPreferences:    map[string]string{},
		PreviousQuestions:  []string{},
	}

	seen := make(map[string]bool)
	for _, h := range histories {
		var userTurns []model.Message
		for _, msg := range h.Messages {
			lower := strings.ToLower(msg.Content)
			for _, t := range memoryTopics {
				if !seen[t.topic] && strings.Contains(lower, t.keyword) {
					seen[t.topic] = true
					mc.RecentTopics = append(mc.RecentTopics, t.topic)
				}
			}
			if msg.Role != model.MessageRoleUser {
				continue
			}
			userTurns = append(userTurns, msg)
			if m := childrenPattern.FindStringSubmatch(msg.Content); m != nil {
				mc.UserPreferences["numberOfChildren"] = m[1]
			}
		}

		if len(userTurns) > memoryQuestions {
			userTurns = userTurns[len(userTurns)-memoryQuestions:]
		}
		for _, msg := range userTurns {
			if strings.Contains(msg.Content, "?") {
				mc.PreviousQuestions = append(mc.PreviousQuestions, msg.Content)
			}
		}
	}
	return mc
}
