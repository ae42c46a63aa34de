package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrAssistantNotFound = errors.New("assistant not found")

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vapi returned %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAssistantNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the Vapi REST API with the secret key. Calls are never retried.
type Client interface {
	CreateAssistant(ctx context.Context, assistant Assistant) (*Assistant, error)
	GetAssistant(ctx context.Context, id string) (*Assistant, error)
	UpdateAssistant(ctx context.Context, id string, update AssistantUpdate) (*Assistant, error)
	DeleteAssistant(ctx context.Context, id string) error
	ListAssistants(ctx context.Context, limit int) ([]Assistant, error)
	EndCall(ctx context.Context, controlURL string) error
}

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(cfg Config) (Client, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("vapi secret key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.vapi.ai"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &client{
		baseURL:   baseURL,
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *client) CreateAssistant(ctx context.Context, assistant Assistant) (*Assistant, error) {
	var created Assistant
	if err := c.do(ctx, http.MethodPost, "/assistant", assistant, &created); err != nil {
		return nil, fmt.Errorf("creating assistant: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("creating assistant: response has no id")
	}
	slog.InfoContext(ctx, "vapi assistant created", "assistant_id", created.ID, "name", created.Name)
	return &created, nil
}

func (c *client) GetAssistant(ctx context.Context, id string) (*Assistant, error) {
	var assistant Assistant
	if err := c.do(ctx, http.MethodGet, "/assistant/"+url.PathEscape(id), nil, &assistant); err != nil {
		return nil, fmt.Errorf("getting assistant %s: %w", id, err)
	}
	return &assistant, nil
}

func (c *client) UpdateAssistant(ctx context.Context, id string, update AssistantUpdate) (*Assistant, error) {
	var assistant Assistant
	if err := c.do(ctx, http.MethodPatch, "/assistant/"+url.PathEscape(id), update, &assistant); err != nil {
		return nil, fmt.Errorf("updating assistant %s: %w", id, err)
	}
	return &assistant, nil
}

func (c *client) DeleteAssistant(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/assistant/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting assistant %s: %w", id, err)
	}
	return nil
}

func (c *client) ListAssistants(ctx context.Context, limit int) ([]Assistant, error) {
	path := "/assistant"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var assistants []Assistant
	if err := c.do(ctx, http.MethodGet, path, nil, &assistants); err != nil {
		return nil, fmt.Errorf("listing assistants: %w", err)
	}
	return assistants, nil
}

// EndCall asks a live call to hang up through its control URL.
func (c *client) EndCall(ctx context.Context, controlURL string) error {
	if controlURL == "" {
		return fmt.Errorf("ending call: no control url")
	}
	if err := c.send(ctx, http.MethodPost, controlURL, map[string]string{"type": "end-call"}, nil, false); err != nil {
		return fmt.Errorf("ending call: %w", err)
	}
	return nil
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, c.baseURL+path, body, out, true)
}

func (c *client) send(ctx context.Context, method, target string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
