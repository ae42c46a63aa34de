package llm

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds LLM client configuration.
type Config struct {
	Provider string // "openai" or "anthropic"
	APIKey   string // Required: API key for the provider
	BaseURL  string // Optional: custom API endpoint
	Model    string
}

// TextClient produces free-form completions.
type TextClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}

type CompletionRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64 // nil = model default
}

// Message is a single conversational turn. Role is "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

type CompletionResponse struct {
	Content          string
	FinishReason     string // "stop", "length", or the provider's raw reason
	PromptTokens     int
	CompletionTokens int
}

// NewTextClient selects the provider named in cfg.Provider.
// Defaults to Anthropic if no provider is specified.
func NewTextClient(cfg Config) (TextClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderAnthropic
	}

	switch provider {
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// UserPrompt is shorthand for a single-turn request.
func UserPrompt(content string) []Message {
	return []Message{{Role: "user", Content: content}}
}

// GenerateSchema reflects T into a strict JSON schema suitable for structured output.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}
