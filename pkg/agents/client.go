package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/empassist/empassist/internal/logging"
)

const defaultTimeout = 30 * time.Second

// HTTPError is a non-2xx response from the agents platform, preserved so the
// entry point can surface the upstream status code.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend HTTP %d: %s", e.StatusCode, e.Body)
}

// Thread is a server-side conversation container.
type Thread struct {
	ID string `json:"id"`
}

// Run is one engine invocation against a thread.
type Run struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// MessageContent is one content block of a message. The text payload arrives
// either nested as {"text":{"value":"..."}} or flat as {"text":"..."}.
type MessageContent struct {
	Type string          `json:"type,omitempty"`
	Text json.RawMessage `json:"text,omitempty"`
}

// TextValue extracts the text payload from either wire shape.
func (c MessageContent) TextValue() string {
	if len(c.Text) == 0 {
		return ""
	}
	var nested struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(c.Text, &nested); err == nil && nested.Value != "" {
		return nested.Value
	}
	var flat string
	if err := json.Unmarshal(c.Text, &flat); err == nil {
		return flat
	}
	return ""
}

// Message is one entry in a thread's message log.
type Message struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	CreatedAt int64            `json:"created_at"`
	Content   []MessageContent `json:"content"`
}

// MessageList is the message log envelope.
type MessageList struct {
	Data []Message `json:"data"`
}

// Agent is a provisioned assistant.
type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// OpenAPITool declares one OpenAPI-backed tool for agent provisioning.
type OpenAPITool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Spec        json.RawMessage `json:"spec"`
	Auth        ToolAuth        `json:"auth"`
}

// ToolAuth is the tool's auth scheme. Only anonymous is used here.
type ToolAuth struct {
	Type string `json:"type"`
}

// AnonymousAuth is the auth payload for tools callable without credentials.
var AnonymousAuth = ToolAuth{Type: "anonymous"}

// CreateAgentRequest provisions an assistant with its instruction text and
// OpenAPI tools.
type CreateAgentRequest struct {
	Model        string        `json:"model"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Instructions string        `json:"instructions"`
	Tools        []toolPayload `json:"tools,omitempty"`
}

type toolPayload struct {
	Type    string      `json:"type"`
	OpenAPI OpenAPITool `json:"openapi"`
}

// WithTools attaches OpenAPI tools to the request.
func (r CreateAgentRequest) WithTools(tools ...OpenAPITool) CreateAgentRequest {
	for _, tool := range tools {
		r.Tools = append(r.Tools, toolPayload{Type: "openapi", OpenAPI: tool})
	}
	return r
}

// Client speaks the threads/runs REST protocol of an assistants-style agents
// platform. Every request carries a bearer token and the api-version query
// parameter.
type Client struct {
	baseURL    string
	apiVersion string
	tokens     TokenSource
	hc         *http.Client
	logger     *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport, for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithClientLogger configures a structured logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the platform at baseURL.
func NewClient(baseURL, apiVersion string, tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		tokens:     tokens,
		hc:         &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateThread opens a fresh conversation container.
func (c *Client) CreateThread(ctx context.Context) (Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &thread); err != nil {
		return Thread{}, err
	}
	if thread.ID == "" {
		return Thread{}, fmt.Errorf("no thread id returned from create thread")
	}
	return thread, nil
}

// CreateMessage appends a message to the thread's log.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) error {
	body := map[string]string{"role": role, "content": content}
	return c.do(ctx, http.MethodPost, "/threads/"+threadID+"/messages", body, nil)
}

// CreateRun triggers one engine invocation for the thread.
func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (Run, error) {
	var run Run
	body := map[string]string{"assistant_id": agentID}
	if err := c.do(ctx, http.MethodPost, "/threads/"+threadID+"/runs", body, &run); err != nil {
		return Run{}, err
	}
	if run.Status == "" {
		run.Status = StatusQueued
	}
	return run, nil
}

// GetRun fetches the run's current status.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	var run Run
	err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/runs/"+runID, nil, &run)
	return run, err
}

// ListMessages fetches the thread's message log.
func (c *Client) ListMessages(ctx context.Context, threadID string) (MessageList, error) {
	var list MessageList
	err := c.do(ctx, http.MethodGet, "/threads/"+threadID+"/messages", nil, &list)
	return list, err
}

// CreateAgent provisions an assistant.
func (c *Client) CreateAgent(ctx context.Context, req CreateAgentRequest) (Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodPost, "/assistants", req, &agent); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if c.apiVersion != "" {
		endpoint += "?api-version=" + url.QueryEscape(c.apiVersion)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("agents platform call failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}
	return nil
}
