// Package enhance rewrites agent drafts with an LLM.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"voicedesk.app/server/common/llm"
	"voicedesk.app/server/core/config"
	"voicedesk.app/server/internal/model"
)

var (
	ErrNotConfigured = errors.New("enhancement not configured")
	ErrUnparseable   = errors.New("enhancement response could not be parsed")
)

// Enhancement is what the model is asked to produce.
type Enhancement struct {
	SystemPrompt   string `json:"enhanced_system_prompt" jsonschema_description:"A comprehensive system prompt for the voice assistant"`
	WelcomeMessage string `json:"enhanced_welcome_message" jsonschema_description:"An improved welcome message"`
	Description    string `json:"enhanced_description" jsonschema_description:"A more detailed description if needed"`
}

// Merge overlays non-empty enhanced fields on the draft.
func (e Enhancement) Merge(draft model.AgentDraft) model.AgentDraft {
	if strings.TrimSpace(e.SystemPrompt) != "" {
		draft.SystemPrompt = e.SystemPrompt
	}
	if strings.TrimSpace(e.WelcomeMessage) != "" {
		draft.WelcomeMessage = e.WelcomeMessage
	}
	if strings.TrimSpace(e.Description) != "" {
		draft.Description = e.Description
	}
	return draft
}

// Enhancer rewrites agent text. Enhance returns the merged draft; on any error
// callers keep the original draft.
type Enhancer interface {
	Enhance(ctx context.Context, draft model.AgentDraft) (model.AgentDraft, error)
	EnhancePrompt(ctx context.Context, draft model.AgentDraft) (string, error)
}

// New picks structured output for OpenAI and JSON extraction for Anthropic.
// It returns ErrNotConfigured when no API key is set.
func New(cfg config.LLMConfig) (Enhancer, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	llmCfg := llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
	}

	text, err := llm.NewTextClient(llmCfg)
	if err != nil {
		return nil, fmt.Errorf("creating text client: %w", err)
	}

	var structured llm.StructuredClient
	if cfg.Provider == llm.ProviderOpenAI {
		structured, err = llm.NewStructuredClient(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("creating structured client: %w", err)
		}
	}

	return NewEnhancer(text, structured, cfg.MaxTokens, cfg.Temperature), nil
}

type enhancer struct {
	text        llm.TextClient
	structured  llm.StructuredClient
	maxTokens   int
	temperature float64
}

// NewEnhancer builds an Enhancer from clients. structured may be nil.
func NewEnhancer(text llm.TextClient, structured llm.StructuredClient, maxTokens int, temperature float64) Enhancer {
	if maxTokens == 0 {
		maxTokens = 2000
	}
	return &enhancer{
		text:        text,
		structured:  structured,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (e *enhancer) Enhance(ctx context.Context, draft model.AgentDraft) (model.AgentDraft, error) {
	var (
		result Enhancement
		err    error
	)
	if e.structured != nil {
		result, err = e.enhanceStructured(ctx, draft)
	} else {
		result, err = e.enhanceText(ctx, draft)
	}
	if err != nil {
		return draft, err
	}

	slog.InfoContext(ctx, "agent draft enhanced",
		"name", draft.Name,
		"system_prompt_len", len(result.SystemPrompt))

	return result.Merge(draft), nil
}

func (e *enhancer) enhanceStructured(ctx context.Context, draft model.AgentDraft) (Enhancement, error) {
	var result Enhancement
	_, err := e.structured.Chat(ctx, llm.StructuredRequest{
		SystemPrompt: "You improve HR voice assistant configurations.",
		UserPrompt:   enhancementPrompt(draft),
		SchemaName:   "agent_enhancement",
		Schema:       llm.GenerateSchema[Enhancement](),
		MaxTokens:    e.maxTokens,
		Temperature:  llm.Temp(e.temperature),
	}, &result)
	if err != nil {
		return Enhancement{}, fmt.Errorf("structured enhancement: %w", err)
	}
	return result, nil
}

func (e *enhancer) enhanceText(ctx context.Context, draft model.AgentDraft) (Enhancement, error) {
	resp, err := e.text.Complete(ctx, llm.CompletionRequest{
		Messages:    llm.UserPrompt(enhancementPrompt(draft)),
		MaxTokens:   e.maxTokens,
		Temperature: llm.Temp(e.temperature),
	})
	if err != nil {
		return Enhancement{}, fmt.Errorf("text enhancement: %w", err)
	}

	var result Enhancement
	if err := ExtractJSON(resp.Content, &result); err != nil {
		slog.WarnContext(ctx, "failed to parse enhancement response",
			"error", err,
			"response_preview", preview(resp.Content, 500))
		return Enhancement{}, err
	}
	return result, nil
}

// EnhancePrompt writes a full markdown system prompt for the draft.
func (e *enhancer) EnhancePrompt(ctx context.Context, draft model.AgentDraft) (string, error) {
	resp, err := e.text.Complete(ctx, llm.CompletionRequest{
		Messages:    llm.UserPrompt(promptWriterPrompt(draft)),
		MaxTokens:   4000,
		Temperature: llm.Temp(e.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("prompt enhancement: %w", err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("prompt enhancement: empty response")
	}
	return resp.Content, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
