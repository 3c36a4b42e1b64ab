package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/httpclient"
	"github.com/kbukum/vidprofile/httpclient/rest"
	"github.com/kbukum/vidprofile/llm"
	"github.com/kbukum/vidprofile/transcription"
)

const (
	// ProviderName is the default provider name.
	ProviderName = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	defaultTimeout = 60 * time.Second

	// MaxInlineAudio is the largest audio file sent inline.
	MaxInlineAudio = 20 << 20

	defaultTranscribePrompt = "Transcribe this audio in Spanish. Provide only the speech transcription, without additional comments or special formatting."
)

// Config configures the Gemini provider.
type Config struct {
	Name    string        `yaml:"name" mapstructure:"name"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Client serves chat completions and inline-audio transcription from one
// Gemini model.
type Client struct {
	cfg     Config
	adapter *llm.Adapter
}

// New creates a Gemini client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, goerrors.MissingField("gemini.api_key")
	}
	if cfg.Name == "" {
		cfg.Name = ProviderName
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	adapter, err := llm.NewWithDialect(Dialect{}, llm.Config{
		Name:    cfg.Name,
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
		Auth:    httpclient.APIKeyAuthHeader(cfg.APIKey, "x-goog-api-key"),
	})
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, adapter: adapter}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return c.cfg.Name }

// Chat returns the chat-completion provider.
func (c *Client) Chat() llm.Provider { return c.adapter }

// Speech returns the transcription provider.
func (c *Client) Speech() transcription.Provider { return &speechProvider{c: c} }

type speechProvider struct{ c *Client }

func (p *speechProvider) Name() string                         { return p.c.cfg.Name }
func (p *speechProvider) IsAvailable(ctx context.Context) bool { return p.c.adapter.IsAvailable(ctx) }

// Execute sends the audio file as inline data together with a transcription
// instruction.
func (p *speechProvider) Execute(ctx context.Context, req transcription.Request) (transcription.Response, error) {
	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return transcription.Response{}, goerrors.InvalidInput("audio_path", err.Error()).WithCause(err)
	}
	if len(audio) > MaxInlineAudio {
		return transcription.Response{}, goerrors.InvalidInput("audio_path",
			fmt.Sprintf("audio is %d bytes, inline limit is %d", len(audio), MaxInlineAudio))
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = defaultTranscribePrompt
	}
	model := req.Model
	if model == "" {
		model = p.c.cfg.Model
	}
	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MIMEType: "audio/wav", Data: base64.StdEncoding.EncodeToString(audio)}},
			},
		}},
	}

	path := Dialect{}.ChatPath(llm.CompletionRequest{Model: model})
	resp, err := rest.Post[json.RawMessage](ctx, p.c.adapter.REST(), path, body)
	if err != nil {
		return transcription.Response{}, httpclient.ToAppError(p.c.cfg.Name, err)
	}
	out, err := Dialect{}.ParseResponse(resp.Data)
	if err != nil {
		return transcription.Response{}, goerrors.ExternalServiceError(p.c.cfg.Name, err)
	}
	return transcription.Response{Text: strings.TrimSpace(out.Content), Language: req.Language}, nil
}
