// Package resilience provides the fault-tolerance primitives the provider
// router and the pipeline build on:
//   - CircuitBreaker: opens after repeated failures or when tripped, and
//     half-opens after a cooldown so one probe can close it again
//   - Retry: bounded retries with exponential backoff for transient errors
//   - Bulkhead: a FIFO worker pool limiting concurrent work
//   - RateLimiter: a token bucket in front of an upstream API
//
//	pool := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "ai", MaxConcurrent: 3})
//	text, err := resilience.ExecuteWithResult(pool, ctx, func() (string, error) {
//	    return svc.Transcribe(ctx, audio)
//	})
package resilience
