package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/chatwidget/internal/model/chat"
)

var (
	ErrEndpointRequired = errors.New("webhook endpoint is required")
	ErrUnexpectedStatus = errors.New("unexpected webhook status")
	ErrMalformedReply   = errors.New("malformed webhook reply")
)

// Sender delivers one chat turn to the webhook and returns its reply.
type Sender interface {
	Send(ctx context.Context, req chat.ExchangeRequest) (chat.ExchangeReply, error)
}

// Client posts chat turns to a fixed webhook endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			client := *c.httpClient
			client.Timeout = timeout
			c.httpClient = &client
		}
	}
}

// NewClient creates a webhook client for endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the configured webhook URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts {chatInput, sessionId} and decodes the reply. Any valid JSON body is
// accepted; Output is set only when the body is an object carrying a non-empty string
// "output" field. A non-string output such as {"output": 42} yields no Output and the
// turn is dropped. Transport errors, non-2xx statuses and invalid JSON are returned as
// errors.
func (c *Client) Send(ctx context.Context, req chat.ExchangeRequest) (chat.ExchangeReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chat.ExchangeReply{}, fmt.Errorf("encode webhook request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return chat.ExchangeReply{}, fmt.Errorf("create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return chat.ExchangeReply{}, fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return chat.ExchangeReply{}, fmt.Errorf("%w: %s %s", ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(snippet)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.ExchangeReply{}, fmt.Errorf("read webhook reply: %w", err)
	}

	return decodeReply(raw)
}

func decodeReply(raw []byte) (chat.ExchangeReply, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return chat.ExchangeReply{}, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}

	var reply chat.ExchangeReply
	if fields, ok := payload.(map[string]any); ok {
		if output, ok := fields["output"].(string); ok && output != "" {
			reply.Output = &output
		}
	}
	return reply, nil
}
