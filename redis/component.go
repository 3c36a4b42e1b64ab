package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/vidprofile/component"
	"github.com/kbukum/vidprofile/logger"
)

// Component owns the connection behind the Redis prompt store. It is
// registered with the app only when Config.Enabled is set.
type Component struct {
	cfg Config
	log *logger.Logger

	mu           sync.Mutex
	client       *Client
	seenTimeouts uint32
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the component. Nothing connects until Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log}
}

// Client returns the connected client, or nil before Start and after Stop.
func (c *Component) Client() *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

func (c *Component) Name() string { return "redis" }

// Start connects and fails unless the server answers a ping.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis: connect %s: %w", c.cfg.Addr, err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis: ping %s: %w", c.cfg.Addr, err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

// Health pings the server. It reports degraded when callers timed out
// waiting for a pooled connection since the previous check.
func (c *Component) Health(ctx context.Context) component.Health {
	client := c.Client()
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	if client == nil {
		h.Message = "not connected"
		return h
	}

	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		h.Message = fmt.Sprintf("ping: %v", err)
		return h
	}
	rtt := time.Since(start)

	stats := client.Unwrap().PoolStats()
	c.mu.Lock()
	newTimeouts := stats.Timeouts - c.seenTimeouts
	c.seenTimeouts = stats.Timeouts
	c.mu.Unlock()

	h.Status = component.StatusHealthy
	h.Message = fmt.Sprintf("rtt=%s conns=%d idle=%d", rtt.Round(time.Microsecond), stats.TotalConns, stats.IdleConns)
	if newTimeouts > 0 {
		h.Status = component.StatusDegraded
		h.Message += fmt.Sprintf(" pool_timeouts=%d", newTimeouts)
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Prompt store",
		Type:    "redis",
		Details: fmt.Sprintf("%s db=%d pool=%d", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize),
	}
}
