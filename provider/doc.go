// Package provider implements the generic provider framework the AI layer is
// built on.
//
// A Provider has a name and an availability check. RequestResponse[I, O]
// adds a single Execute call; chat completion and transcription backends
// both have this shape. Registry[T] maps provider kinds to factories.
//
// Cross-cutting behaviour is added with middleware:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[Req, Resp](log),
//	    provider.WithMetrics[Req, Resp](metrics, "chat"),
//	    provider.ResilienceMiddleware[Req, Resp](provider.ResilienceConfig{
//	        RateLimiter: &resilience.RateLimiterConfig{Rate: 2, Burst: 4},
//	    }),
//	)(backend)
//
// HealthTracker records per-provider outcomes and derives a Status
// (healthy, degraded, unavailable). Selectors use it to order fallback
// candidates without ever dropping one.
package provider
