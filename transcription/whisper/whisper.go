package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/httpclient"
	"github.com/kbukum/vidprofile/transcription"
)

const (
	// ProviderName is the registered name for the Whisper provider.
	ProviderName = "whisper"

	defaultWhisperModel   = "base"
	defaultWhisperTimeout = 120 * time.Second
)

// Config holds configuration for the Whisper transcription provider.
type Config struct {
	URL      string        `yaml:"url" mapstructure:"url"`
	Model    string        `yaml:"model" mapstructure:"model"`
	Language string        `yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Token is sent as a bearer token when the sidecar sits behind an
	// authenticating proxy.
	Token string `yaml:"token" mapstructure:"token"`
}

// Provider implements transcription.Provider using a faster-whisper HTTP sidecar.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.URL == "" {
		return nil, goerrors.MissingField("whisper.url")
	}
	if cfg.Model == "" {
		cfg.Model = defaultWhisperModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultWhisperTimeout
	}
	hc := httpclient.Config{
		Name:    ProviderName,
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
	}
	if cfg.Token != "" {
		hc.Auth = httpclient.BearerAuth(cfg.Token)
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	resp, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil && resp.StatusCode == http.StatusOK
}

// Execute sends an audio file to the Whisper sidecar and returns the transcription.
func (p *Provider) Execute(ctx context.Context, req transcription.Request) (transcription.Response, error) {
	if _, err := os.Stat(req.AudioPath); err != nil {
		return transcription.Response{}, goerrors.InvalidInput("audio_path", err.Error()).WithCause(err)
	}

	fields := map[string]string{"model": p.cfg.Model}
	if req.Model != "" {
		fields["model"] = req.Model
	}
	if lang := firstNonEmpty(req.Language, p.cfg.Language); lang != "" {
		fields["language"] = lang
	}
	if req.Prompt != "" {
		fields["initial_prompt"] = req.Prompt
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "audio",
				ContentType: "audio/wav",
				Path:        req.AudioPath,
			}},
		},
	})
	if err != nil {
		return transcription.Response{}, httpclient.ToAppError(ProviderName, err)
	}

	var result whisperResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return transcription.Response{}, goerrors.ExternalServiceError(ProviderName, fmt.Errorf("decode whisper response: %w", err))
	}
	return toResponse(&result), nil
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func toResponse(resp *whisperResponse) transcription.Response {
	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return transcription.Response{
		Text:     resp.Text,
		Segments: segments,
		Duration: transcription.Duration(segments),
		Language: resp.Language,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
