package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	oai "github.com/sashabaranov/go-openai"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/httpclient"
	"github.com/kbukum/vidprofile/llm"
	"github.com/kbukum/vidprofile/transcription"
)

// Client wraps a go-openai client pointed at one OpenAI-compatible endpoint.
// Chat and Speech expose it as llm and transcription providers.
type Client struct {
	cfg    Config
	client *oai.Client
}

// New creates a client from cfg after applying the preset for cfg.Name.
func New(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	occ := oai.DefaultConfig(cfg.APIKey)
	occ.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	occ.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{cfg: cfg, client: oai.NewClientWithConfig(occ)}, nil
}

// Name returns the configured provider name.
func (c *Client) Name() string { return c.cfg.Name }

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

// Chat returns the chat-completion provider.
func (c *Client) Chat() llm.Provider { return &chatProvider{c: c} }

// Speech returns the transcription provider, or nil when no transcription
// model is configured.
func (c *Client) Speech() transcription.Provider {
	if c.cfg.TranscriptionModel == "" {
		return nil
	}
	return &speechProvider{c: c}
}

type chatProvider struct{ c *Client }

func (p *chatProvider) Name() string                       { return p.c.cfg.Name }
func (p *chatProvider) IsAvailable(_ context.Context) bool { return p.c.cfg.APIKey != "" }

// Execute sends a chat completion. A JSON-mode request that the backend
// rejects because of the response format is retried once without it.
func (p *chatProvider) Execute(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	creq := p.buildRequest(req)
	resp, err := p.c.client.CreateChatCompletion(ctx, creq)
	if err != nil && creq.ResponseFormat != nil && rejectsResponseFormat(err) {
		creq.ResponseFormat = nil
		resp, err = p.c.client.CreateChatCompletion(ctx, creq)
	}
	if err != nil {
		return llm.CompletionResponse{}, translateError(p.c.cfg.Name, err)
	}
	if len(resp.Choices) == 0 {
		return llm.CompletionResponse{}, goerrors.ExternalServiceError(p.c.cfg.Name, errors.New("response has no choices"))
	}

	return llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *chatProvider) buildRequest(req llm.CompletionRequest) oai.ChatCompletionRequest {
	msgs := req.AllMessages()
	out := oai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]oai.ChatCompletionMessage, 0, len(msgs)),
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
		MaxTokens:   req.MaxTokens,
	}
	if out.Model == "" {
		out.Model = p.c.cfg.Model
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, oai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if req.JSONMode {
		out.ResponseFormat = &oai.ChatCompletionResponseFormat{Type: oai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return out
}

type speechProvider struct{ c *Client }

func (p *speechProvider) Name() string                       { return p.c.cfg.Name }
func (p *speechProvider) IsAvailable(_ context.Context) bool { return p.c.cfg.APIKey != "" }

// Execute uploads the audio file to the transcription endpoint.
func (p *speechProvider) Execute(ctx context.Context, req transcription.Request) (transcription.Response, error) {
	model := req.Model
	if model == "" {
		model = p.c.cfg.TranscriptionModel
	}
	resp, err := p.c.client.CreateTranscription(ctx, oai.AudioRequest{
		Model:    model,
		FilePath: req.AudioPath,
		Prompt:   req.Prompt,
		Language: req.Language,
		Format:   oai.AudioResponseFormatJSON,
	})
	if err != nil {
		return transcription.Response{}, translateError(p.c.cfg.Name, err)
	}

	lang := resp.Language
	if lang == "" {
		lang = req.Language
	}
	return transcription.Response{Text: resp.Text, Language: lang, Duration: resp.Duration}, nil
}

func rejectsResponseFormat(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "response_format") || strings.Contains(msg, "not supported")
}

// translateError maps go-openai failures onto the shared error taxonomy.
// Caller cancellation is passed through unchanged.
func translateError(name string, err error) error {
	var apiErr *oai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return httpclient.StatusError(name, apiErr.HTTPStatusCode, apiErr.Message).WithCause(err)
	}
	var reqErr *oai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return httpclient.StatusError(name, reqErr.HTTPStatusCode, reqErr.Error()).WithCause(err)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Timeout(name).WithCause(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return goerrors.Timeout(name).WithCause(err)
		}
		return goerrors.ConnectionFailed(name).WithCause(err)
	}
	return goerrors.ExternalServiceError(name, err)
}
