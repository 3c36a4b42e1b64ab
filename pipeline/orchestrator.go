package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/vidprofile/ai"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/media"
	"github.com/kbukum/vidprofile/observability"
	"github.com/kbukum/vidprofile/resilience"
	"github.com/kbukum/vidprofile/router"
	"github.com/kbukum/vidprofile/validation"
)

// maxAssessFieldLength bounds each free-text assessment input.
const maxAssessFieldLength = 4000

// Result is the output of one video request.
type Result struct {
	RequestID  string           `json:"request_id"`
	Transcript string           `json:"transcription"`
	Language   string           `json:"language,omitempty"`
	Profile    ai.ProfileFields `json:"profile_data"`
	Narrative  string           `json:"cv_profile"`
	// Providers names the provider that served each operation.
	Providers map[ai.Operation]string `json:"providers"`
	// Attempts counts every provider call made for the request.
	Attempts int `json:"attempts"`
}

// ProfileSummary echoes the inputs an assessment was generated from.
type ProfileSummary struct {
	Profession   string `json:"profession"`
	Technologies string `json:"technologies"`
	Experience   string `json:"experience"`
}

// Assessment is the output of Assess.
type Assessment struct {
	RequestID      string         `json:"request_id"`
	TechnicalTest  string         `json:"technical_test_markdown"`
	ProfileSummary ProfileSummary `json:"profile_summary"`
	Provider       string         `json:"provider"`
}

// Outcome is the result of one video in ProcessAll.
type Outcome struct {
	Video  string
	Result *Result
	Err    error
}

// Orchestrator runs requests through the router. Every step of every
// request it serves shares one worker pool.
type Orchestrator struct {
	router       *router.Router
	pool         *resilience.Bulkhead
	cfg          Config
	extractor    media.Extractor
	detector     LanguageDetector
	metrics      *observability.Metrics
	log          *logger.Logger
	onTransition func(Transition)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExtractor sets the audio extractor used by Process.
func WithExtractor(e media.Extractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

// WithLogger sets the orchestrator logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithMetrics records one request sample per flow.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLanguageDetector replaces the lingua detector.
func WithLanguageDetector(d LanguageDetector) Option {
	return func(o *Orchestrator) { o.detector = d }
}

// WithTransitionHook observes every state change. fn runs on the request's
// goroutine.
func WithTransitionHook(fn func(Transition)) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

// New creates an Orchestrator over r.
func New(r *router.Router, cfg Config, opts ...Option) *Orchestrator {
	cfg.ApplyDefaults()
	o := &Orchestrator{
		router:  r,
		cfg:     cfg,
		metrics: observability.NewNoopMetrics(),
		log:     logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.WithComponent("pipeline")
	if o.detector == nil && *cfg.DetectLanguage {
		o.detector = NewLanguageDetector(cfg.Languages)
	}
	o.pool = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "pipeline",
		MaxConcurrent: cfg.Workers,
		MaxWait:       cfg.QueueTimeout,
		OnReject: func(name string) {
			o.log.Warn("worker pool wait abandoned", logger.Fields("pool", name))
		},
	})
	return o
}

// Pool returns the shared worker pool.
func (o *Orchestrator) Pool() *resilience.Bulkhead { return o.pool }

// Run transcribes audio, extracts the profile and writes the narrative.
// Every step must have a candidate before any provider is called.
func (o *Orchestrator) Run(ctx context.Context, audio ai.Audio) (*Result, error) {
	ctx, req := o.begin(ctx, "run")
	if err := o.preflight(); err != nil {
		return nil, req.fail(err)
	}
	return o.run(ctx, req, audio)
}

// Process extracts the audio track of video, runs it and removes the
// extracted audio. Extraction failures end the request.
func (o *Orchestrator) Process(ctx context.Context, video string) (*Result, error) {
	ctx, req := o.begin(ctx, "process")
	if o.extractor == nil {
		return nil, req.fail(goerrors.ServiceUnavailable("media extractor"))
	}
	if err := o.preflight(); err != nil {
		return nil, req.fail(err)
	}

	audio, err := o.extractor.ExtractAudio(ctx, video)
	if err != nil {
		return nil, req.fail(err)
	}
	defer func() {
		if err := o.extractor.Cleanup(audio); err != nil {
			req.log.Warn("audio cleanup failed", logger.MergeWithError(logger.Fields("path", audio.Path), err))
		}
	}()

	return o.run(ctx, req, audio)
}

// ProcessAll processes videos with up to Workers requests in flight.
// Outcomes keep the order of videos; a failed video does not stop the rest.
func (o *Orchestrator) ProcessAll(ctx context.Context, videos []string) ([]Outcome, error) {
	type job struct {
		index int
		video string
	}
	type done struct {
		index   int
		outcome Outcome
	}

	jobs := make([]job, len(videos))
	for i, v := range videos {
		jobs[i] = job{index: i, video: v}
	}

	stream := Parallel(FromSlice(jobs), o.cfg.Workers, func(ctx context.Context, j job) (done, error) {
		res, err := o.Process(ctx, j.video)
		return done{index: j.index, outcome: Outcome{Video: j.video, Result: res, Err: err}}, nil
	})
	finished, err := Collect(ctx, stream)
	if err != nil {
		return nil, err
	}

	out := make([]Outcome, len(videos))
	for _, d := range finished {
		out[d.index] = d.outcome
	}
	return out, nil
}

// Assess generates a technical test for fields. Profession and technologies
// are required.
func (o *Orchestrator) Assess(ctx context.Context, fields ai.ProfileFields) (*Assessment, error) {
	fields = ai.NewProfileFields(toAny(fields.Map()))
	if err := validation.New().
		Specified(ai.FieldProfession, fields.Profession, ai.Unspecified).
		Specified(ai.FieldTechnologies, fields.Technologies, ai.Unspecified).
		MaxLength(ai.FieldProfession, fields.Profession, maxAssessFieldLength).
		MaxLength(ai.FieldTechnologies, fields.Technologies, maxAssessFieldLength).
		MaxLength(ai.FieldExperience, fields.Experience, maxAssessFieldLength).
		Validate(); err != nil {
		return nil, err
	}

	ctx, id := withRequestID(ctx)
	log := o.log.WithContext(ctx)
	start := time.Now()
	o.metrics.RecordRequestStart(ctx, "assess")

	res, err := o.step(ctx, router.Task{Operation: ai.OpGenerateAssessment, Fields: fields})
	if err != nil {
		o.metrics.RecordRequestEnd(ctx, "assess", "error", time.Since(start))
		log.Error("assessment failed", logger.MergeWithError(nil, err))
		return nil, err
	}
	o.metrics.RecordRequestEnd(ctx, "assess", "ok", time.Since(start))
	log.Info("assessment generated", logger.Fields(
		logger.FieldProvider, res.Provider,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	return &Assessment{
		RequestID:     id,
		TechnicalTest: res.Text,
		ProfileSummary: ProfileSummary{
			Profession:   fields.Profession,
			Technologies: fields.Technologies,
			Experience:   fields.Experience,
		},
		Provider: res.Provider,
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, req *request, audio ai.Audio) (*Result, error) {
	out := &Result{RequestID: req.id, Providers: make(map[ai.Operation]string, 3)}
	record := func(op ai.Operation, res router.Result) {
		out.Providers[op] = res.Provider
		out.Attempts += len(res.Attempts)
	}

	req.advance(StateTranscribing)
	res, err := o.step(ctx, router.Task{Operation: ai.OpTranscribe, Audio: audio})
	if err != nil {
		return nil, req.fail(err)
	}
	record(ai.OpTranscribe, res)
	out.Transcript = res.Text
	out.Language = o.detectLanguage(out.Transcript)

	req.advance(StateExtractingProfile)
	res, err = o.step(ctx, router.Task{Operation: ai.OpExtractProfile, Transcript: out.Transcript})
	if err != nil {
		return nil, req.fail(err)
	}
	record(ai.OpExtractProfile, res)
	out.Profile = res.Profile

	req.advance(StateGeneratingNarrative)
	res, err = o.step(ctx, router.Task{
		Operation:  ai.OpGenerateNarrative,
		Transcript: out.Transcript,
		Fields:     out.Profile,
	})
	if err != nil {
		return nil, req.fail(err)
	}
	record(ai.OpGenerateNarrative, res)
	out.Narrative = res.Text

	req.complete(out)
	return out, nil
}

// step routes task while holding one pool slot. The slot stays taken until
// every provider call the route started has returned, including calls the
// caller abandoned.
func (o *Orchestrator) step(ctx context.Context, task router.Task) (router.Result, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline."+string(task.Operation))
	defer span.End()

	res, err := o.route(ctx, task)
	if err == nil {
		observability.SetSpanAttribute(ctx, observability.AttrProvider, res.Provider)
		return res, nil
	}

	if errors.Is(err, resilience.ErrBulkheadTimeout) {
		err = goerrors.ServiceUnavailable("worker pool").WithCause(err)
	}
	var abort *ai.AbortError
	if errors.As(err, &abort) {
		err = abort.Err
	}
	observability.SetSpanError(ctx, err)
	return res, err
}

func (o *Orchestrator) route(ctx context.Context, task router.Task) (router.Result, error) {
	release, err := o.pool.Acquire(ctx)
	if err != nil {
		return router.Result{}, err
	}
	res, err := o.router.Route(ctx, task)
	if res.Settled == nil {
		release()
		return res, err
	}
	select {
	case <-res.Settled:
		release()
	default:
		go func() {
			<-res.Settled
			release()
		}()
	}
	return res, err
}

func (o *Orchestrator) preflight() error {
	for _, op := range []ai.Operation{ai.OpTranscribe, ai.OpExtractProfile, ai.OpGenerateNarrative} {
		if !o.router.HasCandidates(op) {
			return goerrors.NoProviderAvailable(string(op))
		}
	}
	return nil
}

func (o *Orchestrator) detectLanguage(text string) string {
	if o.detector == nil {
		return ""
	}
	lang, ok := o.detector.Detect(text)
	if !ok {
		return ""
	}
	return lang
}

// request tracks the state of one video request.
type request struct {
	o     *Orchestrator
	ctx   context.Context
	id    string
	flow  string
	state State
	start time.Time
	log   *logger.Logger
}

func (o *Orchestrator) begin(ctx context.Context, flow string) (context.Context, *request) {
	ctx, id := withRequestID(ctx)
	o.metrics.RecordRequestStart(ctx, flow)
	req := &request{
		o:     o,
		ctx:   ctx,
		id:    id,
		flow:  flow,
		state: StateReceived,
		start: time.Now(),
		log:   o.log.WithContext(ctx),
	}
	req.log.Info("request received", logger.Fields("flow", flow))
	return ctx, req
}

func (r *request) advance(to State) {
	t := Transition{RequestID: r.id, From: r.state, To: to, At: time.Now()}
	r.state = to
	r.log.Debug("state changed", logger.Fields("from", t.From.String(), "to", t.To.String()))
	if r.o.onTransition != nil {
		r.o.onTransition(t)
	}
}

func (r *request) fail(err error) error {
	from := r.state
	t := Transition{RequestID: r.id, From: from, To: StateFailed, Err: err, At: time.Now()}
	r.state = StateFailed

	elapsed := time.Since(r.start)
	fields := logger.Fields(
		"from", from.String(),
		logger.FieldDuration, elapsed.Milliseconds(),
	)
	if code := goerrors.CodeOf(err); code != "" {
		fields[logger.FieldErrorCode] = string(code)
	}
	r.log.Error("request failed", logger.MergeWithError(fields, err))
	r.o.metrics.RecordRequestEnd(r.ctx, r.flow, "error", elapsed)
	if r.o.onTransition != nil {
		r.o.onTransition(t)
	}
	return err
}

func (r *request) complete(res *Result) {
	elapsed := time.Since(r.start)
	r.advance(StateComplete)
	r.o.metrics.RecordRequestEnd(r.ctx, r.flow, "ok", elapsed)
	r.log.Info("request complete", logger.Fields(
		"transcribed_by", res.Providers[ai.OpTranscribe],
		"extracted_by", res.Providers[ai.OpExtractProfile],
		"narrated_by", res.Providers[ai.OpGenerateNarrative],
		"attempts", res.Attempts,
		"language", res.Language,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
}

// withRequestID keeps a request id already on ctx or assigns a new one.
func withRequestID(ctx context.Context) (context.Context, string) {
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return logger.ContextWithRequestID(ctx, id), id
}

func toAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
