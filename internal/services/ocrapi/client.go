package ocrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"unitcam/internal/services"
)

const (
	component          = "ocrapi"
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 8 << 20
	maxSnippetBytes    = 256
)

// Config captures the runtime settings required to talk to the service.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Client issues requests against the extraction service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Ping verifies the service answers HTTP at all. Any response status counts as
// reachable.
func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/", nil, "ping")
	if err != nil {
		return err
	}
	if status >= http.StatusInternalServerError {
		return services.Wrap(services.ErrTransport, component, "ping", fmt.Sprintf("http %d", status), nil)
	}
	return nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, snippet(e.Body))
}

// envelope is the shared success/error shape of the JSON endpoints.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ok reports whether the envelope describes a successful call. A missing
// success flag falls back to the HTTP status.
func (e envelope) ok(status int) bool {
	if e.Success != nil {
		return *e.Success
	}
	return status >= 200 && status < 300 && strings.TrimSpace(e.Error) == ""
}

func (e envelope) serverError(op string, status int) error {
	msg := strings.TrimSpace(e.Error)
	if msg == "" {
		msg = strings.TrimSpace(e.Message)
	}
	return &services.ServerError{Operation: op, StatusCode: status, Message: msg}
}

func (c *Client) do(ctx context.Context, method, path string, payload any, op string) (int, []byte, error) {
	if c.cfg.BaseURL == "" {
		return 0, nil, services.Wrap(services.ErrConfiguration, component, op, "base url required", nil)
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, services.Wrap(services.ErrValidation, component, op, "encode request", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return 0, nil, services.Wrap(services.ErrTransport, component, op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, services.Wrap(services.ErrTransport, component, op, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, services.Wrap(services.ErrTransport, component, op, "read response", err)
	}
	return resp.StatusCode, data, nil
}

// decode unmarshals a JSON body, tagging non-JSON replies as transport errors.
func decode(op string, status int, data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		if status < 200 || status >= 300 {
			return services.Wrap(services.ErrTransport, component, op, "unexpected response", &httpStatusError{StatusCode: status, Body: string(data)})
		}
		return services.Wrap(services.ErrTransport, component, op, "decode response", err)
	}
	return nil
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > maxSnippetBytes {
		body = body[:maxSnippetBytes] + "..."
	}
	return body
}
