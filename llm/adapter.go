package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/httpclient"
	"github.com/kbukum/vidprofile/httpclient/rest"
)

// ErrNoDialect is returned when an adapter is built without a dialect.
var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter is a config-driven LLM client that works with any provider via the
// Dialect pattern.
//
// It composes the REST client with a Dialect that handles provider-specific
// request/response mapping. Auth, rate limiting and timeouts come from the
// HTTP layer; transport and status failures surface as *errors.AppError.
type Adapter struct {
	rest      *rest.Client
	dialect   Dialect
	model     string
	temp      float64
	maxTokens int
}

// New creates an LLM adapter from config using the global dialect registry.
func New(cfg Config) (*Adapter, error) {
	cfg.applyDefaults()

	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return newAdapter(dialect, cfg)
}

// NewWithDialect creates an LLM adapter with an explicit dialect instance.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	cfg.applyDefaults()
	if cfg.Name == "" {
		cfg.Name = dialect.Name() + "-llm"
	}
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	client, err := rest.New(httpclient.Config{
		Name:        cfg.Name,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Auth:        cfg.Auth,
		Headers:     cfg.Headers,
		Retry:       cfg.Retry,
		RateLimiter: cfg.RateLimiter,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create rest client: %w", err)
	}

	return &Adapter{
		rest:      client,
		dialect:   dialect,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.rest.Name() }

// IsAvailable probes the dialect's health endpoint. Dialects without one are
// considered available once configured.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	hp := a.dialect.HealthPath()
	if hp == "" {
		return true
	}
	_, err := rest.Get[json.RawMessage](ctx, a.rest, hp)
	return err == nil
}

// Execute sends a completion request and returns the full response.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, goerrors.InvalidInput("request", err.Error()).WithCause(err)
	}

	resp, err := rest.Post[json.RawMessage](ctx, a.rest, a.dialect.ChatPath(req), body)
	if err != nil {
		return CompletionResponse{}, httpclient.ToAppError(a.Name(), err)
	}

	result, err := a.dialect.ParseResponse(resp.Data)
	if err != nil {
		return CompletionResponse{}, goerrors.ExternalServiceError(a.Name(), fmt.Errorf("parse response: %w", err))
	}
	return *result, nil
}

// Dialect returns the dialect used by this adapter.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// REST returns the underlying REST client for advanced use cases.
func (a *Adapter) REST() *rest.Client { return a.rest }

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
