package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kbukum/vidprofile/httpclient"
)

var jsonHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

// requestIDHeaders are the response headers model APIs use to identify a
// call, in lookup order.
var requestIDHeaders = []string{"X-Request-Id", "Request-Id", "Cf-Ray"}

// Client exchanges JSON with one model API.
type Client struct {
	http *httpclient.Client
}

// New creates a client. Content-Type and Accept default to JSON unless cfg
// already sets them.
func New(cfg httpclient.Config) (*Client, error) {
	headers := make(map[string]string, len(cfg.Headers)+len(jsonHeaders))
	for k, v := range jsonHeaders {
		headers[k] = v
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers

	c, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// Name returns the upstream name used in errors.
func (c *Client) Name() string { return c.http.Name() }

// Response is a decoded reply.
type Response[T any] struct {
	StatusCode int
	// RequestID is the upstream's identifier for the call, when it sent one.
	RequestID string
	Data      T
}

// Get sends a GET and decodes the reply into T.
func Get[T any](ctx context.Context, c *Client, path string) (*Response[T], error) {
	return send[T](ctx, c, http.MethodGet, path, nil)
}

// Post sends body as JSON and decodes the reply into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (*Response[T], error) {
	return send[T](ctx, c, http.MethodPost, path, body)
}

// send returns the decoded error body alongside a failed status when it is
// valid JSON, so callers can read the upstream's own error message.
func send[T any](ctx context.Context, c *Client, method, path string, body any) (*Response[T], error) {
	raw, err := c.http.Do(ctx, httpclient.Request{Method: method, Path: path, Body: body})
	if raw == nil {
		return nil, err
	}

	out := &Response[T]{StatusCode: raw.StatusCode, RequestID: requestID(raw.Headers)}
	if len(raw.Body) == 0 {
		return out, err
	}
	if decodeErr := json.Unmarshal(raw.Body, &out.Data); decodeErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("rest: decode %s %s reply: %w", method, path, decodeErr)
	}
	return out, err
}

func requestID(headers map[string]string) string {
	for _, h := range requestIDHeaders {
		if v := headers[h]; v != "" {
			return v
		}
	}
	return ""
}
