package provider

import (
	"slices"
	"sync/atomic"
)

// Selector orders candidate providers for one fallback run. Implementations
// reorder but never drop candidates; the router skips cooling-down ones at
// dispatch time.
type Selector[T Provider] interface {
	Order(candidates []T, health *HealthTracker) []T
}

// PrioritySelector keeps the given priority order and moves degraded and
// cooling-down providers behind healthy ones, preserving relative order
// within each group.
type PrioritySelector[T Provider] struct{}

// Order implements Selector.
func (PrioritySelector[T]) Order(candidates []T, health *HealthTracker) []T {
	out := slices.Clone(candidates)
	if health == nil {
		return out
	}
	snaps := snapshots(out, health)
	slices.SortStableFunc(out, func(a, b T) int {
		return int(snaps[a.Name()].Status) - int(snaps[b.Name()].Status)
	})
	return out
}

// LeastFailuresSelector orders by status, then by recorded failure count.
type LeastFailuresSelector[T Provider] struct{}

// Order implements Selector.
func (LeastFailuresSelector[T]) Order(candidates []T, health *HealthTracker) []T {
	out := slices.Clone(candidates)
	if health == nil {
		return out
	}
	snaps := snapshots(out, health)
	slices.SortStableFunc(out, func(a, b T) int {
		sa, sb := snaps[a.Name()], snaps[b.Name()]
		if sa.Status != sb.Status {
			return int(sa.Status) - int(sb.Status)
		}
		return sa.Failures - sb.Failures
	})
	return out
}

// RoundRobinSelector rotates the starting candidate on every call so load
// spreads across healthy providers. Unhealthy providers still go last.
type RoundRobinSelector[T Provider] struct {
	counter atomic.Uint64
}

// Order implements Selector.
func (s *RoundRobinSelector[T]) Order(candidates []T, health *HealthTracker) []T {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	start := int(s.counter.Add(1)-1) % n
	rotated := make([]T, 0, n)
	rotated = append(rotated, candidates[start:]...)
	rotated = append(rotated, candidates[:start]...)
	return PrioritySelector[T]{}.Order(rotated, health)
}

// snapshots reads each candidate's health once so a sort sees one
// consistent view.
func snapshots[T Provider](candidates []T, health *HealthTracker) map[string]HealthSnapshot {
	out := make(map[string]HealthSnapshot, len(candidates))
	for _, c := range candidates {
		out[c.Name()] = health.Snapshot(c.Name())
	}
	return out
}
