package llm

import (
	"context"
	"strings"
)

// Option adjusts a CompletionRequest built by Complete.
type Option func(*CompletionRequest)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(r *CompletionRequest) { r.Temperature = t }
}

// WithTopP sets the nucleus sampling mass.
func WithTopP(p float64) Option {
	return func(r *CompletionRequest) { r.TopP = p }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(r *CompletionRequest) { r.MaxTokens = n }
}

// WithJSONMode asks the backend for a JSON object response.
func WithJSONMode() Option {
	return func(r *CompletionRequest) { r.JSONMode = true }
}

// Complete is a convenience helper: sends system + user prompts and returns
// the trimmed text response. It accepts any Provider so wrapped and composed
// providers work the same way.
func Complete(ctx context.Context, p Provider, system, user string, opts ...Option) (string, error) {
	req := CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
	}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := p.Execute(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
