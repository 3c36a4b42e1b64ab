// Package component defines lifecycle-managed infrastructure pieces (Redis,
// telemetry exporters) and a registry that starts them in order and stops
// them in reverse.
package component
