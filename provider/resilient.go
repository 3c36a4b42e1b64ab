package provider

import (
	"context"
	"errors"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/resilience"
)

// WithResilience wraps a RequestResponse provider with resilience policies.
// Execution chain: RateLimiter → Bulkhead → CircuitBreaker → Retry → Execute.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{inner: p, state: BuildResilience(cfg)}
}

// ResilienceMiddleware adapts WithResilience for use in Chain.
func ResilienceMiddleware[I, O any](cfg ResilienceConfig) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return WithResilience(inner, cfg)
	}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *ResilienceState
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return ExecuteWithResilience(ctx, r.inner.Name(), r.state, func() (O, error) {
		return r.inner.Execute(ctx, input)
	})
}

// ExecuteWithResilience runs fn through the resilience chain and converts
// resilience sentinel errors into AppErrors naming service.
func ExecuteWithResilience[T any](ctx context.Context, service string, s *ResilienceState, fn func() (T, error)) (T, error) {
	if s == nil {
		return fn()
	}

	if s.rl != nil {
		if err := s.rl.Wait(ctx); err != nil {
			var zero T
			if errors.Is(err, context.Canceled) {
				return zero, err
			}
			return zero, goerrors.RateLimited(service).WithCause(err)
		}
	}

	call := fn
	if s.retryCfg != nil {
		retryCfg := *s.retryCfg
		call = func() (T, error) {
			return resilience.Retry(ctx, retryCfg, fn)
		}
	}

	if s.cb != nil {
		cbCall := call
		call = func() (T, error) {
			var result T
			var resultErr error
			cbErr := s.cb.Execute(func() error {
				result, resultErr = cbCall()
				return resultErr
			})
			if cbErr != nil && resultErr == nil {
				return result, wrapResilienceError(service, cbErr)
			}
			return result, resultErr
		}
	}

	if s.bh != nil {
		result, err := resilience.ExecuteWithResult(s.bh, ctx, call)
		if err != nil {
			return result, wrapResilienceError(service, err)
		}
		return result, nil
	}

	return call()
}

func wrapResilienceError(service string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := goerrors.AsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return goerrors.ServiceUnavailable(service).WithCause(err)
	case errors.Is(err, resilience.ErrRateLimited):
		return goerrors.RateLimited(service).WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadTimeout):
		return goerrors.ServiceUnavailable(service).
			WithCause(err).
			WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Timeout(service).WithCause(err)
	default:
		return err
	}
}
