package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed infrastructure component.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description is a one-line summary of a component for startup logs.
type Description struct {
	// Name is the human-readable display name. Empty means Component.Name().
	Name string
	// Type categorizes the component: "redis", "telemetry", ...
	Type string
	// Details is shown next to the name, e.g. "localhost:6379 db=0 pool=10".
	Details string
}

// Describable is optionally implemented by Components that report how they
// are configured.
type Describable interface {
	Describe() Description
}
