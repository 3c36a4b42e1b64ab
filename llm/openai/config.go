package openai

import (
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
)

// Known OpenAI-compatible provider kinds.
const (
	KindGroq        = "groq"
	KindOpenAI      = "openai"
	KindOpenRouter  = "openrouter"
	KindHuggingFace = "huggingface"
)

const defaultTimeout = 60 * time.Second

// Config configures an OpenAI-compatible client.
type Config struct {
	// Name identifies the provider in logs, health and errors.
	Name string `yaml:"name" mapstructure:"name"`
	// APIKey is the bearer credential.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// BaseURL is the API root including the version segment.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Model is the chat model.
	Model string `yaml:"model" mapstructure:"model"`
	// TranscriptionModel enables speech-to-text when set.
	TranscriptionModel string `yaml:"transcription_model" mapstructure:"transcription_model"`
	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Preset returns the endpoint and model defaults for a known kind.
// Unknown kinds return a config carrying only the name.
func Preset(kind string) Config {
	switch kind {
	case KindGroq:
		return Config{
			Name:               kind,
			BaseURL:            "https://api.groq.com/openai/v1",
			Model:              "llama-3.3-70b-versatile",
			TranscriptionModel: "whisper-large-v3-turbo",
		}
	case KindOpenAI:
		return Config{
			Name:               kind,
			BaseURL:            "https://api.openai.com/v1",
			Model:              "gpt-4o-mini",
			TranscriptionModel: "whisper-1",
		}
	case KindOpenRouter:
		return Config{
			Name:    kind,
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "meta-llama/llama-3.2-3b-instruct:free",
		}
	case KindHuggingFace:
		return Config{
			Name:    kind,
			BaseURL: "https://router.huggingface.co/v1",
			Model:   "meta-llama/Llama-3.2-3B-Instruct",
		}
	default:
		return Config{Name: kind}
	}
}

// WithDefaults fills empty fields from the preset of c.Name.
func (c Config) WithDefaults() Config {
	p := Preset(c.Name)
	if c.BaseURL == "" {
		c.BaseURL = p.BaseURL
	}
	if c.Model == "" {
		c.Model = p.Model
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = p.TranscriptionModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Validate checks the fields a client cannot work without.
func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return goerrors.MissingField("name")
	case c.APIKey == "":
		return goerrors.MissingField(c.Name + ".api_key")
	case c.BaseURL == "":
		return goerrors.MissingField(c.Name + ".base_url")
	case c.Model == "":
		return goerrors.MissingField(c.Name + ".model")
	}
	return nil
}
