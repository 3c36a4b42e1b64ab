package router

import (
	"fmt"
	"time"
)

// Strategy names a candidate ordering.
const (
	StrategyFallbackChain = "fallback_chain"
	StrategyLeastFailures = "least_failures"
	StrategyRoundRobin    = "round_robin"
)

// Config configures a Router.
type Config struct {
	// Strategy orders candidates. Defaults to fallback_chain.
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	// AttemptTimeout bounds one provider call. Defaults to 60s.
	AttemptTimeout time.Duration `yaml:"attempt_timeout" mapstructure:"attempt_timeout"`
	// AttemptsPerCandidate bounds calls to one provider, retrying only
	// transient failures. Defaults to 1.
	AttemptsPerCandidate int `yaml:"attempts_per_candidate" mapstructure:"attempts_per_candidate" validate:"gte=0,lte=10"`
	// RetryBackoff is the pause before a same-provider retry.
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	// Cooldown is how long a provider stays unavailable after a fatal failure.
	Cooldown time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
	// HealthThreshold is the success ratio below which a provider is degraded.
	HealthThreshold float64 `yaml:"health_threshold" mapstructure:"health_threshold" validate:"gte=0,lte=1"`
	// MinSamples is the number of attempts before HealthThreshold applies.
	MinSamples int `yaml:"min_samples" mapstructure:"min_samples" validate:"gte=0"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyFallbackChain
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 60 * time.Second
	}
	if c.AttemptsPerCandidate <= 0 {
		c.AttemptsPerCandidate = 1
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.HealthThreshold <= 0 {
		c.HealthThreshold = 0.5
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 3
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyFallbackChain, StrategyLeastFailures, StrategyRoundRobin:
	default:
		return fmt.Errorf("router: unknown strategy %q", c.Strategy)
	}
	if c.HealthThreshold > 1 {
		return fmt.Errorf("router: health_threshold must be within (0, 1], got %v", c.HealthThreshold)
	}
	return nil
}
