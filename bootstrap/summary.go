package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/vidprofile/component"
	"github.com/kbukum/vidprofile/logger"
)

// Entry is one line of the startup summary.
type Entry struct {
	Name    string
	Type    string
	Details string
	Healthy bool
}

// Summary collects what the application started with and logs it once
// startup completes.
type Summary struct {
	serviceName string
	version     string

	mu              sync.Mutex
	startupDuration time.Duration
	entries         []Entry
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startupDuration = d
}

// Track adds an entry that is not a registered component, such as an AI
// provider.
func (s *Summary) Track(name, typ, details string, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Name: name, Type: typ, Details: details, Healthy: healthy})
}

// Entries returns the registered components of reg followed by the tracked
// entries.
func (s *Summary) Entries(ctx context.Context, reg *component.Registry) []Entry {
	var out []Entry
	if reg != nil {
		health := make(map[string]component.Health)
		for _, h := range reg.HealthAll(ctx) {
			health[h.Name] = h
		}
		for _, c := range reg.All() {
			e := Entry{Name: c.Name(), Type: "component"}
			if d, ok := c.(component.Describable); ok {
				desc := d.Describe()
				if desc.Name != "" {
					e.Name = desc.Name
				}
				e.Type, e.Details = desc.Type, desc.Details
			}
			e.Healthy = health[c.Name()].Status == component.StatusHealthy
			out = append(out, e)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append(out, s.entries...)
}

// Display logs one line per entry and a closing line with the startup time.
func (s *Summary) Display(ctx context.Context, reg *component.Registry, log *logger.Logger) {
	for _, e := range s.Entries(ctx, reg) {
		fields := logger.Fields("type", e.Type, "healthy", e.Healthy)
		if e.Details != "" {
			fields["details"] = e.Details
		}
		log.Info(e.Name, fields)
	}

	s.mu.Lock()
	d := s.startupDuration
	s.mu.Unlock()
	log.Info("Startup complete", logger.Fields(
		"service", s.serviceName,
		"version", s.version,
		logger.FieldDuration, d.Milliseconds(),
	))
}
