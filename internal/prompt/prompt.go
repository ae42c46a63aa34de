// Package prompt renders the system prompts agents are given on calls.
package prompt

import (
	"fmt"
	"strings"

	"voicedesk.app/server/internal/model"
)

// FunctionInstruction closes every call-time prompt so the model knows when to
// hand off to the workflow.
const FunctionInstruction = "Important: When you need to process complex requests or access external data, call the processWithN8N function."

// ForAgent returns the agent's explicit system prompt, or the fallback template
// when none is set.
func ForAgent(a *model.Agent) string {
	if a.SystemPrompt != nil && strings.TrimSpace(*a.SystemPrompt) != "" {
		return *a.SystemPrompt
	}
	return Fallback(a)
}

// Fallback composes a prompt from the agent's fields, skipping empty ones.
func Fallback(a *model.Agent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, an HR assistant.", a.Name)
	writeLine(&b, "", a.Description)
	writeLine(&b, "Personality: ", string(a.Personality))
	writeLine(&b, "Response Style: ", string(a.ResponseStyle))
	writeLine(&b, "Company Context: ", a.CompanyContext)
	writeLine(&b, "Knowledge Base: ", a.KnowledgeBase)
	return b.String()
}

// Welcome returns the agent's greeting or the default one.
func Welcome(a *model.Agent) string {
	if strings.TrimSpace(a.WelcomeMessage) != "" {
		return a.WelcomeMessage
	}
	return model.DefaultWelcomeMessage(a.Name)
}

// ForCall is the prompt used when a chat view starts a call. Recent messages
// from the current conversation are appended so the agent can pick up where
// the user left off.
func ForCall(a *model.Agent, recent []model.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s. %s\n\n", a.Name, a.Description)
	fmt.Fprintf(&b, "Personality: %s\n", a.Personality)
	fmt.Fprintf(&b, "Response Style: %s\n", a.ResponseStyle)
	fmt.Fprintf(&b, "Company Context: %s\n", orNA(a.CompanyContext))
	fmt.Fprintf(&b, "Knowledge Base: %s\n\n", orNA(a.KnowledgeBase))

	if a.SystemPrompt != nil && strings.TrimSpace(*a.SystemPrompt) != "" {
		b.WriteString(*a.SystemPrompt)
		b.WriteString("\n\n")
	}

	if len(recent) > 0 {
		b.WriteString("Previous conversation context:\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString(FunctionInstruction)
	return b.String()
}

// ForInboundCall is the prompt for a phone caller routed to a bound agent.
func ForInboundCall(a *model.Agent, callerNumber string) string {
	var b strings.Builder
	b.WriteString(ForAgent(a))
	if callerNumber != "" {
		fmt.Fprintf(&b, "\n\nCaller Phone: %s", callerNumber)
	}
	b.WriteString("\n\n")
	b.WriteString(FunctionInstruction)
	return b.String()
}

// FormatHistory renders past conversations for the workflow. An empty
// history renders as an empty string.
func FormatHistory(history []model.ConversationHistory) string {
	var b strings.Builder
	for _, h := range history {
		for _, m := range h.Messages {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "Previous conversations:\n" + b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(label)
	b.WriteString(value)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
