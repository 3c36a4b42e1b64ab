package llm

import (
	"time"

	"github.com/kbukum/vidprofile/httpclient"
	"github.com/kbukum/vidprofile/resilience"
)

// Config holds configuration for creating a dialect-driven LLM adapter.
type Config struct {
	// Name identifies this adapter instance (e.g., "gemini").
	Name string `yaml:"name" mapstructure:"name"`

	// Dialect selects the provider mapping. Must match a dialect registered
	// via RegisterDialect.
	Dialect string `yaml:"dialect" mapstructure:"dialect"`

	// BaseURL is the provider's API base URL.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Model is the default model to use.
	Model string `yaml:"model" mapstructure:"model"`

	// Temperature is the default sampling temperature (0.0-1.0).
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens is the default maximum tokens for responses. 0 means provider default.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout for HTTP requests. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Auth configures authentication (Bearer token, API key, etc.).
	Auth *httpclient.AuthConfig `yaml:"-" mapstructure:"-"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry configures transport-level retries. Nil disables them.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`

	// RateLimiter configures client-side rate limiting.
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" mapstructure:"-"`
}

// applyDefaults sets default values for unset config fields.
func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Name == "" && c.Dialect != "" {
		c.Name = c.Dialect + "-llm"
	}
}
