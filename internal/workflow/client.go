// Package workflow forwards in-call requests to n8n webhooks.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNotConfigured = errors.New("workflow endpoint not configured")

// StatusError is returned when a webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("workflow returned %d: %s", e.StatusCode, e.Body)
}

// Client calls the three n8n webhooks the service knows about. Every call is
// a single attempt bounded by the configured timeout.
type Client interface {
	AgentResponse(ctx context.Context, req AgentResponseRequest) (*Reply, error)
	AddDocument(ctx context.Context, req AddDocumentRequest) (*Reply, error)
	Forward(ctx context.Context, req ForwardRequest) (*Reply, error)
}

type Config struct {
	AgentResponseURL string
	AddDocumentsURL  string
	ForwardURL       string
	Timeout          time.Duration
}

type AgentResponseRequest struct {
	Text                string         `json:"text"`
	AgentID             string         `json:"agentId,omitempty"`
	Context             map[string]any `json:"context,omitempty"`
	ConversationHistory string         `json:"conversationHistory"`
	Timestamp           time.Time      `json:"timestamp"`
}

type AddDocumentRequest struct {
	Document  json.RawMessage `json:"document"`
	AgentID   string          `json:"agentId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type ForwardRequest struct {
	UserMessage    string          `json:"userMessage"`
	AgentID        string          `json:"agentId,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	AgentContext   json.RawMessage `json:"agentContext,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Reply is a decoded webhook response. Raw keeps the full body for auditing.
type Reply struct {
	Raw      json.RawMessage
	Response string
	Message  string
	Metadata json.RawMessage
}

// Text picks the first non-empty of response, message, fallback.
func (r *Reply) Text(fallback string) string {
	if r == nil {
		return fallback
	}
	if strings.TrimSpace(r.Response) != "" {
		return r.Response
	}
	if strings.TrimSpace(r.Message) != "" {
		return r.Message
	}
	return fallback
}

type client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *client) AgentResponse(ctx context.Context, req AgentResponseRequest) (*Reply, error) {
	return c.post(ctx, "agent-response", c.cfg.AgentResponseURL, req)
}

func (c *client) AddDocument(ctx context.Context, req AddDocumentRequest) (*Reply, error) {
	return c.post(ctx, "add-documents", c.cfg.AddDocumentsURL, req)
}

func (c *client) Forward(ctx context.Context, req ForwardRequest) (*Reply, error) {
	return c.post(ctx, "forward", c.cfg.ForwardURL, req)
}

func (c *client) post(ctx context.Context, name, url string, body any) (*Reply, error) {
	if url == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", name, err)
	}

	slog.DebugContext(ctx, "workflow webhook answered",
		"workflow", name,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %w", name, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))})
	}

	reply, err := decodeReply(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return reply, nil
}

// decodeReply accepts an object or, as n8n's "respond with all items" mode
// produces, an array whose first element is the object.
func decodeReply(raw []byte) (*Reply, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &Reply{}, nil
	}

	body := trimmed
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		if len(items) == 0 {
			return &Reply{Raw: json.RawMessage(trimmed)}, nil
		}
		body = items[0]
	}

	var fields struct {
		Response any             `json:"response"`
		Message  any             `json:"message"`
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &Reply{
		Raw:      json.RawMessage(trimmed),
		Response: asText(fields.Response),
		Message:  asText(fields.Message),
		Metadata: fields.Metadata,
	}, nil
}

func asText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		encoded, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
