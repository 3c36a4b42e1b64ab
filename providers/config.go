package providers

import (
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/vidprofile/ai"
)

// Provider kinds in build order.
const (
	KindGroq        = "groq"
	KindGemini      = "gemini"
	KindOpenAI      = "openai"
	KindOpenRouter  = "openrouter"
	KindHuggingFace = "huggingface"
	KindWhisper     = "whisper"
)

// Kinds lists every known kind in the order Build tries them.
var Kinds = []string{KindGroq, KindGemini, KindOpenAI, KindOpenRouter, KindHuggingFace, KindWhisper}

// BackendConfig configures one hosted provider. An empty APIKey leaves the
// provider out.
type BackendConfig struct {
	APIKey             string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url"`
	Model              string        `yaml:"model" mapstructure:"model"`
	TranscriptionModel string        `yaml:"transcription_model" mapstructure:"transcription_model"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// RateLimit caps requests per second to the backend. Zero disables it.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// WhisperConfig configures the self-hosted whisper sidecar. An empty URL
// leaves it out.
type WhisperConfig struct {
	URL       string        `yaml:"url" mapstructure:"url"`
	Model     string        `yaml:"model" mapstructure:"model"`
	Token     string        `yaml:"token" mapstructure:"token"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RateLimit float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int           `yaml:"burst" mapstructure:"burst"`
}

// Settings holds options shared by every provider.
type Settings struct {
	// Preferences orders candidates per operation name.
	Preferences map[string][]string `yaml:"preferences" mapstructure:"preferences"`
	// CallTimeout bounds one outbound call inside an adapter.
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	// Language is the transcription language.
	Language string `yaml:"language" mapstructure:"language"`
}

// Config is the provider section of the service configuration. The backend
// sections sit at the top level so GROQ_API_KEY maps onto groq.api_key.
type Config struct {
	Groq        BackendConfig `yaml:"groq" mapstructure:"groq"`
	Gemini      BackendConfig `yaml:"gemini" mapstructure:"gemini"`
	OpenAI      BackendConfig `yaml:"openai" mapstructure:"openai"`
	OpenRouter  BackendConfig `yaml:"openrouter" mapstructure:"openrouter"`
	HuggingFace BackendConfig `yaml:"huggingface" mapstructure:"huggingface"`
	Whisper     WhisperConfig `yaml:"whisper" mapstructure:"whisper"`
	Providers   Settings      `yaml:"providers" mapstructure:"providers"`
}

// DefaultPreferences returns the built-in candidate order per operation.
func DefaultPreferences() map[ai.Operation][]string {
	text := []string{KindGroq, KindGemini, KindOpenAI, KindOpenRouter, KindHuggingFace}
	return map[ai.Operation][]string{
		ai.OpTranscribe:         {KindGroq, KindOpenAI, KindGemini, KindWhisper},
		ai.OpExtractProfile:     text,
		ai.OpGenerateNarrative:  text,
		ai.OpGenerateAssessment: text,
	}
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Providers.CallTimeout <= 0 {
		c.Providers.CallTimeout = 60 * time.Second
	}
	if c.Providers.Language == "" {
		c.Providers.Language = "es"
	}
}

// Validate checks the preference lists name known operations and kinds.
func (c *Config) Validate() error {
	for opName, kinds := range c.Providers.Preferences {
		if _, err := ai.ParseOperation(opName); err != nil {
			return fmt.Errorf("providers.preferences: %w", err)
		}
		for _, k := range kinds {
			if !slices.Contains(Kinds, k) {
				return fmt.Errorf("providers.preferences.%s: unknown provider %q", opName, k)
			}
		}
	}
	return nil
}

// Preferences merges the configured lists over the defaults.
func (c *Config) Preferences() map[ai.Operation][]string {
	prefs := DefaultPreferences()
	for opName, kinds := range c.Providers.Preferences {
		if op, err := ai.ParseOperation(opName); err == nil {
			prefs[op] = kinds
		}
	}
	return prefs
}

// credential returns the value whose absence skips kind.
func (c *Config) credential(kind string) string {
	switch kind {
	case KindWhisper:
		return c.Whisper.URL
	default:
		if b := c.backend(kind); b != nil {
			return b.APIKey
		}
		return ""
	}
}

func (c *Config) backend(kind string) *BackendConfig {
	switch kind {
	case KindGroq:
		return &c.Groq
	case KindGemini:
		return &c.Gemini
	case KindOpenAI:
		return &c.OpenAI
	case KindOpenRouter:
		return &c.OpenRouter
	case KindHuggingFace:
		return &c.HuggingFace
	default:
		return nil
	}
}
