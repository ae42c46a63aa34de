package vapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Names of the functions assistants can call.
const (
	FunctionProcessWithN8N = "processWithN8N"
	FunctionAddDocument    = "addDocument"
)

var ErrInvalidParameters = errors.New("invalid function parameters")

// ProcessWithN8NParams is what the model passes when it wants the workflow to answer.
type ProcessWithN8NParams struct {
	UserMessage    string         `json:"userMessage" jsonschema_description:"The user's message or request"`
	AgentID        string         `json:"agentId,omitempty" jsonschema_description:"The ID of the current agent"`
	ConversationID string         `json:"conversationId,omitempty" jsonschema_description:"The ID of the current conversation"`
	Context        map[string]any `json:"context,omitempty" jsonschema_description:"Additional context for the request"`
}

func (p ProcessWithN8NParams) Validate() error {
	if strings.TrimSpace(p.UserMessage) == "" {
		return fmt.Errorf("%w: userMessage is required", ErrInvalidParameters)
	}
	return nil
}

// AddDocumentParams carries a document for the knowledge base. The document
// is forwarded untouched, so it may be a string or an object.
type AddDocumentParams struct {
	Document json.RawMessage `json:"document"`
	AgentID  string          `json:"agentId,omitempty"`
}

func (p AddDocumentParams) Validate() error {
	doc := strings.TrimSpace(string(p.Document))
	if doc == "" || doc == "null" || doc == `""` {
		return fmt.Errorf("%w: document is required", ErrInvalidParameters)
	}
	return nil
}

// DecodeParameters decodes raw function parameters into T and validates them.
func DecodeParameters[T interface{ Validate() error }](raw json.RawMessage) (T, error) {
	var params T
	if len(raw) == 0 {
		return params, fmt.Errorf("%w: missing parameters", ErrInvalidParameters)
	}
	// Some clients double-encode parameters as a JSON string.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// ProcessWithN8NFunction is the function declaration every assistant carries.
func ProcessWithN8NFunction() Function {
	return Function{
		Name:        FunctionProcessWithN8N,
		Description: "Process user request through n8n workflow for complex queries",
		Parameters:  parameterSchema[ProcessWithN8NParams](),
	}
}

func parameterSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	schema.ID = ""
	return schema
}
