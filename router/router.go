package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/vidprofile/ai"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/observability"
	"github.com/kbukum/vidprofile/provider"
	"github.com/kbukum/vidprofile/resilience"
)

// Task is one unit of routed work. Only the inputs of Operation are read.
type Task struct {
	Operation  ai.Operation
	Audio      ai.Audio
	Transcript string
	Fields     ai.ProfileFields
}

// Attempt records one dispatched provider call.
type Attempt struct {
	Provider  string
	Operation ai.Operation
	Kind      ai.FailureKind
	Err       error
	Latency   time.Duration
}

// Result is the output of the first successful attempt.
type Result struct {
	Provider string
	// Text holds the transcript, narrative or assessment.
	Text string
	// Profile holds the extracted profile.
	Profile  ai.ProfileFields
	Attempts []Attempt
	// Settled is closed once every provider call started by Route has
	// returned. Calls outlive Route only when the caller cancels.
	Settled <-chan struct{}
}

// errCoolingDown marks a candidate skipped because its cooldown has not
// elapsed.
var errCoolingDown = errors.New("provider cooling down")

// Router dispatches a Task to the first provider that completes it.
type Router struct {
	registry *ai.Registry
	health   *provider.HealthTracker
	selector provider.Selector[ai.Service]
	cfg      Config
	metrics  *observability.Metrics
	log      *logger.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics records one operation sample per attempt.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithLogger sets the router logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithHealth shares an existing tracker instead of building one from Config.
func WithHealth(h *provider.HealthTracker) Option {
	return func(r *Router) { r.health = h }
}

// WithSelector overrides the strategy named in Config.
func WithSelector(s provider.Selector[ai.Service]) Option {
	return func(r *Router) { r.selector = s }
}

// New creates a Router over registry and attaches its health tracker to the
// registry's descriptors.
func New(registry *ai.Registry, cfg Config, opts ...Option) *Router {
	cfg.ApplyDefaults()
	r := &Router{
		registry: registry,
		cfg:      cfg,
		health: provider.NewHealthTracker(provider.HealthConfig{
			Threshold:  cfg.HealthThreshold,
			MinSamples: cfg.MinSamples,
			Cooldown:   cfg.Cooldown,
		}),
		selector: selectorFor(cfg.Strategy),
		metrics:  observability.NewNoopMetrics(),
		log:      logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("router")
	registry.AttachHealth(r.health)
	return r
}

func selectorFor(strategy string) provider.Selector[ai.Service] {
	switch strategy {
	case StrategyLeastFailures:
		return provider.LeastFailuresSelector[ai.Service]{}
	case StrategyRoundRobin:
		return &provider.RoundRobinSelector[ai.Service]{}
	default:
		return provider.PrioritySelector[ai.Service]{}
	}
}

// Health returns the tracker fed by every attempt.
func (r *Router) Health() *provider.HealthTracker { return r.health }

// Registry returns the registry the router draws candidates from.
func (r *Router) Registry() *ai.Registry { return r.registry }

// HasCandidates reports whether any enabled provider supports op.
func (r *Router) HasCandidates(op ai.Operation) bool {
	return len(r.registry.Candidates(op)) > 0
}

// Route tries candidates in strategy order and returns the first success.
// Transient and malformed failures fall through to the next candidate;
// fatal failures also put the provider into cooldown, and a provider is not
// dispatched again until that cooldown elapses. Request-level failures and
// caller cancellation return immediately. When every candidate fails the
// error is PROVIDERS_EXHAUSTED with the last failure as cause.
func (r *Router) Route(ctx context.Context, task Task) (res Result, err error) {
	op := task.Operation
	candidates := r.registry.Candidates(op)
	if len(candidates) == 0 {
		return Result{Settled: settled(nil)}, goerrors.NoProviderAvailable(string(op))
	}
	ordered := r.selector.Order(candidates, r.health)
	log := r.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldOperation, string(op)))

	var (
		calls    sync.WaitGroup
		attempts []Attempt
		cooling  []string
		lastErr  error
		last     string
	)
	defer func() { res.Settled = settled(&calls) }()

	for _, svc := range ordered {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempts}, err
		}
		if !svc.Capabilities().Has(op) {
			continue
		}

		name := svc.Name()
		retry := resilience.RetryConfig{
			MaxAttempts:    r.cfg.AttemptsPerCandidate,
			InitialBackoff: r.cfg.RetryBackoff,
			BackoffFactor:  2,
			RetryIf: func(err error) bool {
				return ai.Classify(err) == ai.FailureTransient && ctx.Err() == nil &&
					!errors.Is(err, errCoolingDown) && r.health.Status(name) != provider.StatusUnavailable
			},
		}
		res, err := resilience.Retry(ctx, retry, func() (Result, error) {
			if !r.health.Allow(name) {
				return Result{}, errCoolingDown
			}
			res, att := r.attempt(ctx, &calls, svc, task)
			attempts = append(attempts, att)
			r.record(ctx, log, att)
			return res, att.Err
		})
		if err == nil {
			res.Provider = name
			res.Attempts = attempts
			return res, nil
		}

		if ctx.Err() != nil {
			return Result{Attempts: attempts}, ctx.Err()
		}
		if errors.Is(err, errCoolingDown) {
			log.Debug("skipping provider in cooldown", logger.Fields(logger.FieldProvider, name))
			cooling = append(cooling, name)
			continue
		}
		if ai.Classify(err) == ai.FailureAbort {
			return Result{Attempts: attempts}, err
		}
		lastErr, last = err, name
	}

	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = s.Name()
	}
	if lastErr == nil {
		if len(cooling) == 0 {
			return Result{Attempts: attempts}, goerrors.NoProviderAvailable(string(op))
		}
		lastErr, last = goerrors.ServiceUnavailable(cooling[len(cooling)-1]), cooling[len(cooling)-1]
	}
	exhausted := goerrors.ProvidersExhausted(string(op), len(attempts), names, lastErr).
		WithDetail("last_provider", last)
	if len(cooling) > 0 {
		exhausted = exhausted.WithDetail("cooling_down", cooling)
	}
	log.Error("all providers failed", logger.MergeWithError(logger.Fields(
		"attempts", len(attempts),
		"candidates", strings.Join(names, ","),
	), lastErr))
	return Result{Attempts: attempts}, exhausted
}

// settled returns a channel closed once calls drains.
func settled(calls *sync.WaitGroup) <-chan struct{} {
	ch := make(chan struct{})
	if calls == nil {
		close(ch)
		return ch
	}
	go func() {
		calls.Wait()
		close(ch)
	}()
	return ch
}

// attempt dispatches one call. The call runs detached from the caller's
// cancellation under AttemptTimeout; if the caller goes away first the
// attempt reports the caller's error, and the late outcome still feeds the
// provider's health before calls is released.
func (r *Router) attempt(ctx context.Context, calls *sync.WaitGroup, svc ai.Service, task Task) (Result, Attempt) {
	type outcome struct {
		res Result
		err error
	}

	spanCtx, span := observability.StartSpan(ctx, "router."+string(task.Operation))
	defer span.End()
	observability.SetSpanAttribute(spanCtx, observability.AttrProvider, svc.Name())

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(spanCtx), r.cfg.AttemptTimeout)
	done := make(chan outcome, 1)
	start := time.Now()
	calls.Add(1)
	go func() {
		defer cancel()
		res, err := invoke(callCtx, svc, task)
		done <- outcome{res, err}
	}()

	var o outcome
	select {
	case o = <-done:
		calls.Done()
	case <-ctx.Done():
		o.err = ctx.Err()
		go func() {
			defer calls.Done()
			late := <-done
			r.updateHealth(svc.Name(), ai.Classify(late.err), time.Since(start))
		}()
	}
	if o.err != nil {
		observability.SetSpanError(spanCtx, o.err)
	}

	att := Attempt{
		Provider:  svc.Name(),
		Operation: task.Operation,
		Kind:      ai.Classify(o.err),
		Err:       o.err,
		Latency:   time.Since(start),
	}
	return o.res, att
}

func (r *Router) updateHealth(name string, kind ai.FailureKind, latency time.Duration) {
	switch kind {
	case ai.FailureNone:
		r.health.RecordSuccess(name, latency)
	case ai.FailureTransient, ai.FailureMalformed:
		r.health.RecordFailure(name, latency)
	case ai.FailureFatal:
		r.health.RecordFailure(name, latency)
		r.health.Trip(name)
	case ai.FailureUnsupported, ai.FailureAbort:
	}
}

// record feeds one attempt into health, metrics and the log.
func (r *Router) record(ctx context.Context, log *logger.Logger, att Attempt) {
	fields := logger.Fields(
		logger.FieldProvider, att.Provider,
		logger.FieldDuration, att.Latency.Milliseconds(),
	)
	status := "ok"
	r.updateHealth(att.Provider, att.Kind, att.Latency)

	if att.Err != nil {
		status = att.Kind.String()
		fields["kind"] = status
		if code := goerrors.CodeOf(att.Err); code != "" {
			fields[logger.FieldErrorCode] = string(code)
		}
		fields[logger.FieldError] = att.Err.Error()
		r.metrics.RecordError(ctx, status, att.Provider)
		log.Warn("provider attempt failed", fields)
	} else {
		log.Debug("provider attempt succeeded", fields)
	}
	r.metrics.RecordOperation(ctx, att.Provider, string(att.Operation), status, att.Latency)
}

func invoke(ctx context.Context, svc ai.Service, task Task) (Result, error) {
	var res Result
	var err error
	switch task.Operation {
	case ai.OpTranscribe:
		res.Text, err = svc.Transcribe(ctx, task.Audio)
	case ai.OpExtractProfile:
		res.Profile, err = svc.ExtractProfile(ctx, task.Transcript)
	case ai.OpGenerateNarrative:
		res.Text, err = svc.GenerateNarrative(ctx, task.Transcript, task.Fields)
	case ai.OpGenerateAssessment:
		res.Text, err = svc.GenerateAssessment(ctx, task.Fields)
	default:
		err = ai.Abort(goerrors.InvalidInput("operation", "unknown operation "+string(task.Operation)))
	}
	return res, err
}
