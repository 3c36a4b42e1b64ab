package provider

import (
	"github.com/kbukum/vidprofile/resilience"
)

// ResilienceConfig bundles optional per-provider resilience policies.
// Nil fields are skipped and an empty config leaves the provider unwrapped.
type ResilienceConfig struct {
	// CircuitBreaker fails fast after repeated errors.
	CircuitBreaker *resilience.CircuitBreakerConfig
	// Retry retries failed calls with exponential backoff.
	Retry *resilience.RetryConfig
	// RateLimiter spaces calls to respect an upstream quota.
	RateLimiter *resilience.RateLimiterConfig
	// Bulkhead caps concurrent calls to one upstream.
	Bulkhead *resilience.BulkheadConfig
}

// IsEmpty returns true if no resilience policies are configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.RateLimiter == nil && c.Bulkhead == nil
}

// ResilienceState holds initialized resilience primitives built from config.
type ResilienceState struct {
	cb       *resilience.CircuitBreaker
	rl       *resilience.RateLimiter
	bh       *resilience.Bulkhead
	retryCfg *resilience.RetryConfig
}

// BuildResilience creates initialized resilience primitives from config.
func BuildResilience(cfg ResilienceConfig) *ResilienceState {
	if cfg.IsEmpty() {
		return nil
	}
	s := &ResilienceState{retryCfg: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		s.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		s.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	if cfg.Bulkhead != nil {
		s.bh = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	return s
}
