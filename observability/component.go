package observability

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/vidprofile/component"
)

// Component installs the OTLP providers on Start and flushes them on Stop.
// Metrics are bound to the global meter provider once started.
type Component struct {
	cfg         Config
	service     string
	version     string
	environment string

	mu       sync.Mutex
	shutdown func(context.Context) error
	metrics  *Metrics
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a telemetry component.
func NewComponent(cfg Config, service, version, environment string) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, service: service, version: version, environment: environment}
}

// Name returns the component name.
func (c *Component) Name() string { return "telemetry" }

// Start installs the providers and creates the instruments.
func (c *Component) Start(ctx context.Context) error {
	shutdown, err := Setup(ctx, c.cfg, c.service, c.version, c.environment)
	if err != nil {
		return fmt.Errorf("telemetry start: %w", err)
	}
	m := NewNoopMetrics()
	if c.cfg.Enabled {
		if m, err = NewMetrics(Meter(c.service)); err != nil {
			_ = shutdown(ctx)
			return fmt.Errorf("telemetry metrics: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown, c.metrics = shutdown, m
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	shutdown := c.shutdown
	c.shutdown = nil
	c.mu.Unlock()
	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

// Health is healthy once started.
func (c *Component) Health(context.Context) component.Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Metrics returns the instruments, or no-op instruments before Start.
func (c *Component) Metrics() *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics == nil {
		return NewNoopMetrics()
	}
	return c.metrics
}

// Describe reports the export target.
func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp http %s sample=%.2f", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
