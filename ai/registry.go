package ai

import (
	"slices"
	"sync"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/provider"
)

// Descriptor is the read-only view of one registered provider.
type Descriptor struct {
	Name         string                  `json:"name"`
	Capabilities CapabilitySet           `json:"-"`
	Operations   []Operation             `json:"operations"`
	Enabled      bool                    `json:"enabled"`
	Health       provider.HealthSnapshot `json:"-"`
	Status       string                  `json:"status"`
}

// HealthSource reports provider health. *provider.HealthTracker implements it.
type HealthSource interface {
	Snapshot(name string) provider.HealthSnapshot
}

// Registry holds the services built for this process, in registration
// order, together with per-operation preference lists.
type Registry struct {
	mu          sync.RWMutex
	services    []Service
	enabled     map[string]bool
	preferences map[Operation][]string
	health      HealthSource
}

// NewRegistry creates an empty registry. prefs orders candidates per
// operation; services it does not name follow in registration order.
func NewRegistry(prefs map[Operation][]string) *Registry {
	cp := make(map[Operation][]string, len(prefs))
	for op, names := range prefs {
		cp[op] = slices.Clone(names)
	}
	return &Registry{enabled: make(map[string]bool), preferences: cp}
}

// Add registers s as enabled. Names must be unique.
func (r *Registry) Add(s Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enabled[s.Name()]; ok {
		return goerrors.InvalidInput("provider", "duplicate provider "+s.Name())
	}
	r.services = append(r.services, s)
	r.enabled[s.Name()] = true
	return nil
}

// AttachHealth sets the source used to fill Descriptor health.
func (r *Registry) AttachHealth(h HealthSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health = h
}

// SetEnabled toggles whether name is offered as a candidate.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enabled[name]; !ok {
		return goerrors.NotFound("provider", name)
	}
	r.enabled[name] = enabled
	return nil
}

// Get returns the service registered under name.
func (r *Registry) Get(name string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.services {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Services returns every registered service in registration order.
func (r *Registry) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.services)
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// Candidates returns the enabled services that support op: first those in
// the preference list for op, in that order, then the rest in registration
// order.
func (r *Registry) Candidates(op Operation) []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var eligible []Service
	for _, s := range r.services {
		if r.enabled[s.Name()] && s.Capabilities().Has(op) {
			eligible = append(eligible, s)
		}
	}

	prefs := r.preferences[op]
	rank := func(s Service) int {
		if i := slices.Index(prefs, s.Name()); i >= 0 {
			return i
		}
		return len(prefs)
	}
	slices.SortStableFunc(eligible, func(a, b Service) int { return rank(a) - rank(b) })
	return eligible
}

// Descriptors returns a descriptor per service in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.services))
	for _, s := range r.services {
		d := Descriptor{
			Name:         s.Name(),
			Capabilities: s.Capabilities(),
			Operations:   s.Capabilities().Ops(),
			Enabled:      r.enabled[s.Name()],
			Health:       provider.HealthSnapshot{Status: provider.StatusHealthy},
		}
		if r.health != nil {
			d.Health = r.health.Snapshot(s.Name())
		}
		d.Status = d.Health.Status.String()
		out = append(out, d)
	}
	return out
}
