package vapi

// Model and voice defaults for assistants created by this service.
const (
	DefaultModelProvider  = "openai"
	DefaultModel          = "gpt-4"
	FallbackModel         = "gpt-3.5-turbo"
	DefaultVoiceProvider  = "openai"
	DefaultVoiceModel     = "tts-1"
	DefaultVoiceID        = "alloy"
	PhoneVoiceProvider    = "11labs"
	PhoneVoiceID          = "rachel"
	DefaultSilenceTimeout = 30
)

// AssistantSpec is everything needed to describe an assistant for one agent.
type AssistantSpec struct {
	Name         string
	FirstMessage string
	SystemPrompt string
	ServerURL    string
	ServerSecret string
	Voice        *Voice
	Metadata     map[string]any
}

// BuildAssistant renders a spec with the default model and the workflow function.
func BuildAssistant(spec AssistantSpec) Assistant {
	voice := spec.Voice
	if voice == nil {
		voice = WebVoice()
	}
	return Assistant{
		Name:                  spec.Name,
		FirstMessage:          spec.FirstMessage,
		Model:                 BuildModel(spec.SystemPrompt),
		Voice:                 voice,
		ServerURL:             spec.ServerURL,
		ServerURLSecret:       spec.ServerSecret,
		SilenceTimeoutSeconds: DefaultSilenceTimeout,
		Metadata:              spec.Metadata,
	}
}

// BuildModel is the model section used for creates and prompt updates.
func BuildModel(systemPrompt string) *Model {
	return &Model{
		Provider:  DefaultModelProvider,
		Model:     DefaultModel,
		Messages:  []ModelMessage{{Role: "system", Content: systemPrompt}},
		Functions: []Function{ProcessWithN8NFunction()},
	}
}

func WebVoice() *Voice {
	return &Voice{Provider: DefaultVoiceProvider, Model: DefaultVoiceModel, VoiceID: DefaultVoiceID}
}

func PhoneVoice() *Voice {
	return &Voice{Provider: PhoneVoiceProvider, VoiceID: PhoneVoiceID}
}

// DegradedAssistant is returned to inbound callers when agent lookup fails.
func DegradedAssistant() Assistant {
	return Assistant{
		FirstMessage: "Hello! I'm having trouble accessing your information. How can I help you today?",
		Model: &Model{
			Provider: DefaultModelProvider,
			Model:    FallbackModel,
			Messages: []ModelMessage{{
				Role:    "system",
				Content: "You are a helpful HR assistant. Apologize for technical difficulties and try to help.",
			}},
		},
		Voice: PhoneVoice(),
	}
}
