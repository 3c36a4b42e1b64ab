package provider

import (
	"sort"
	"sync"
	"time"

	"github.com/kbukum/vidprofile/resilience"
)

// Status represents the health status of a provider.
type Status int

const (
	// StatusHealthy indicates the provider is fully operational.
	StatusHealthy Status = iota
	// StatusDegraded indicates the provider fails more often than the health
	// threshold allows.
	StatusDegraded
	// StatusUnavailable indicates the provider is cooling down after a fatal
	// failure or a run of consecutive failures.
	StatusUnavailable
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// HealthConfig configures a HealthTracker.
type HealthConfig struct {
	// Threshold is the minimum success ratio for a provider to stay healthy.
	Threshold float64
	// MinSamples is the number of recorded attempts before Threshold applies.
	MinSamples int
	// Cooldown is how long a tripped provider stays unavailable.
	Cooldown time.Duration
	// MaxConsecutiveFailures opens the cooldown breaker without a trip.
	MaxConsecutiveFailures int
	// Now overrides the clock.
	Now func() time.Time
}

// DefaultHealthConfig returns the default health policy.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Threshold:              0.5,
		MinSamples:             3,
		Cooldown:               30 * time.Second,
		MaxConsecutiveFailures: 5,
	}
}

// HealthSnapshot is a point-in-time view of one provider's health.
type HealthSnapshot struct {
	Status      Status
	Successes   int
	Failures    int
	LastLatency time.Duration
	CoolingDown bool
}

// HealthTracker records per-provider outcomes and derives a Status from
// them. It is safe for concurrent use.
type HealthTracker struct {
	cfg     HealthConfig
	mu      sync.Mutex
	entries map[string]*healthEntry
}

type healthEntry struct {
	successes   int
	failures    int
	lastLatency time.Duration
	breaker     *resilience.CircuitBreaker
}

// NewHealthTracker creates a tracker. Zero config fields take the defaults.
func NewHealthTracker(cfg HealthConfig) *HealthTracker {
	def := DefaultHealthConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HealthTracker{cfg: cfg, entries: make(map[string]*healthEntry)}
}

func (h *HealthTracker) entry(name string) *healthEntry {
	e, ok := h.entries[name]
	if !ok {
		e = &healthEntry{breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             name,
			MaxFailures:      h.cfg.MaxConsecutiveFailures,
			Timeout:          h.cfg.Cooldown,
			HalfOpenMaxCalls: 1,
			Now:              h.cfg.Now,
		})}
		h.entries[name] = e
	}
	return e
}

// RecordSuccess records a successful attempt. A success while degraded
// clears the failure count.
func (h *HealthTracker) RecordSuccess(name string, latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(name)
	if h.statusLocked(e) == StatusDegraded {
		e.failures = 0
	}
	e.successes++
	e.lastLatency = latency
	e.breaker.RecordSuccess()
}

// RecordFailure records a failed attempt.
func (h *HealthTracker) RecordFailure(name string, latency time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := h.entry(name)
	e.failures++
	e.lastLatency = latency
	e.breaker.RecordFailure()
}

// Trip puts the provider into cooldown immediately.
func (h *HealthTracker) Trip(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entry(name).breaker.Trip()
}

// Allow reports whether name may be dispatched now. It is false while the
// provider cools down; once the cooldown elapses exactly one call is let
// through until its outcome is recorded.
func (h *HealthTracker) Allow(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[name]
	if !ok {
		return true
	}
	return e.breaker.Allow()
}

// Status returns the derived status of name. Unknown providers are healthy.
func (h *HealthTracker) Status(name string) Status {
	return h.Snapshot(name).Status
}

// Snapshot returns the current health of name.
func (h *HealthTracker) Snapshot(name string) HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[name]
	if !ok {
		return HealthSnapshot{Status: StatusHealthy}
	}
	return HealthSnapshot{
		Status:      h.statusLocked(e),
		Successes:   e.successes,
		Failures:    e.failures,
		LastLatency: e.lastLatency,
		CoolingDown: e.breaker.State() == resilience.StateOpen,
	}
}

// Names returns the sorted names of every provider with recorded outcomes.
func (h *HealthTracker) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.entries))
	for name := range h.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *HealthTracker) statusLocked(e *healthEntry) Status {
	if e.breaker.State() == resilience.StateOpen {
		return StatusUnavailable
	}
	total := e.successes + e.failures
	if total >= h.cfg.MinSamples && float64(e.successes)/float64(total) < h.cfg.Threshold {
		return StatusDegraded
	}
	return StatusHealthy
}
