package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/vidprofile/ai"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/llm"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/pipeline"
	"github.com/kbukum/vidprofile/prompt"
	"github.com/kbukum/vidprofile/router"
	"github.com/kbukum/vidprofile/testutil"
)

type fixedLanguage string

func (f fixedLanguage) Detect(string) (string, bool) { return string(f), f != "" }

type transitions struct {
	mu  sync.Mutex
	all []pipeline.Transition
}

func (tr *transitions) add(t pipeline.Transition) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.all = append(tr.all, t)
}

func (tr *transitions) path() string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	s := ""
	for _, t := range tr.all {
		s += t.From.String() + ">" + t.To.String() + " "
	}
	return s
}

func newOrchestrator(t *testing.T, cfg pipeline.Config, svcs []ai.Service, opts ...pipeline.Option) (*pipeline.Orchestrator, *transitions) {
	t.Helper()
	reg := ai.NewRegistry(nil)
	for _, s := range svcs {
		if err := reg.Add(s); err != nil {
			t.Fatal(err)
		}
	}
	r := router.New(reg, router.Config{RetryBackoff: time.Millisecond}, router.WithLogger(logger.Nop()))
	tr := &transitions{}
	opts = append([]pipeline.Option{
		pipeline.WithLogger(logger.Nop()),
		pipeline.WithLanguageDetector(fixedLanguage("es")),
		pipeline.WithTransitionHook(tr.add),
	}, opts...)
	return pipeline.New(r, cfg, opts...), tr
}

func services(s ...*testutil.FakeService) []ai.Service {
	out := make([]ai.Service, len(s))
	for i, f := range s {
		out[i] = f
	}
	return out
}

func TestRun(t *testing.T) {
	groq := testutil.NewFakeService("groq", ai.Operations...)
	o, tr := newOrchestrator(t, pipeline.Config{}, services(groq))

	res, err := o.Run(context.Background(), ai.Audio{Path: "a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Transcript != "transcript from groq" || res.Narrative != "narrative from groq" {
		t.Errorf("result = %+v", res)
	}
	if res.Profile.Name != "groq" || res.Profile.Profession != ai.Unspecified {
		t.Errorf("profile = %+v", res.Profile)
	}
	if res.Language != "es" {
		t.Errorf("language = %q", res.Language)
	}
	if res.Attempts != 3 || res.Providers[ai.OpExtractProfile] != "groq" {
		t.Errorf("attempts = %d providers = %v", res.Attempts, res.Providers)
	}
	if res.RequestID == "" {
		t.Error("missing request id")
	}

	want := "received>transcribing transcribing>extracting_profile extracting_profile>generating_narrative generating_narrative>complete "
	if got := tr.path(); got != want {
		t.Errorf("transitions = %q, want %q", got, want)
	}
}

func TestRun_KeepsRequestIDFromContext(t *testing.T) {
	o, tr := newOrchestrator(t, pipeline.Config{}, services(testutil.NewFakeService("groq", ai.Operations...)))

	ctx := logger.ContextWithRequestID(context.Background(), "req-42")
	res, err := o.Run(ctx, ai.Audio{Path: "a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if res.RequestID != "req-42" || tr.all[0].RequestID != "req-42" {
		t.Errorf("request id = %q", res.RequestID)
	}
}

func TestRun_NoTranscribeProvider(t *testing.T) {
	text := testutil.NewFakeService("gemini", ai.TextOperations...)
	o, tr := newOrchestrator(t, pipeline.Config{}, services(text))

	_, err := o.Run(context.Background(), ai.Audio{Path: "a.wav"})
	if !goerrors.HasCode(err, goerrors.ErrCodeNoProviderAvailable) {
		t.Fatalf("err = %v, want NO_PROVIDER_AVAILABLE", err)
	}
	if text.TotalCalls() != 0 {
		t.Errorf("calls = %d, want 0", text.TotalCalls())
	}
	if got := tr.path(); got != "received>failed " {
		t.Errorf("transitions = %q", got)
	}
}

func TestRun_TransientFailuresFallBack(t *testing.T) {
	a := testutil.NewFakeService("a", ai.OpTranscribe).
		Script(ai.OpTranscribe, testutil.Fail(goerrors.ConnectionFailed("a")), testutil.Fail(goerrors.RateLimited("a")))
	b := testutil.NewFakeService("b", ai.Operations...).
		Script(ai.OpTranscribe, testutil.Text("hola, soy Ana"))
	o, _ := newOrchestrator(t, pipeline.Config{}, services(a, b))

	for i := range 2 {
		res, err := o.Run(context.Background(), ai.Audio{Path: "a.wav"})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.Transcript != "hola, soy Ana" || res.Providers[ai.OpTranscribe] != "b" {
			t.Errorf("run %d: transcript %q from %s", i, res.Transcript, res.Providers[ai.OpTranscribe])
		}
	}
	if a.Calls(ai.OpTranscribe) != 2 {
		t.Errorf("a calls = %d, want 2", a.Calls(ai.OpTranscribe))
	}
}

func TestRun_ExtractionExhausted(t *testing.T) {
	speech := testutil.NewFakeService("whisper", ai.OpTranscribe)
	groq := testutil.NewFakeService("groq", ai.TextOperations...).
		Script(ai.OpExtractProfile, testutil.Fail(goerrors.MalformedOutput("groq", "Sure! Here")))
	gemini := testutil.NewFakeService("gemini", ai.TextOperations...).
		Script(ai.OpExtractProfile, testutil.Fail(goerrors.MalformedOutput("gemini", "I cannot")))
	o, tr := newOrchestrator(t, pipeline.Config{}, services(speech, groq, gemini))

	_, err := o.Run(context.Background(), ai.Audio{Path: "a.wav"})
	appErr, ok := goerrors.AsAppError(err)
	if !ok || appErr.Code != goerrors.ErrCodeProvidersExhausted {
		t.Fatalf("err = %v, want PROVIDERS_EXHAUSTED", err)
	}
	if appErr.Details["attempts"] != 2 || appErr.Details["operation"] != string(ai.OpExtractProfile) {
		t.Errorf("details = %v", appErr.Details)
	}
	if groq.Calls(ai.OpGenerateNarrative)+gemini.Calls(ai.OpGenerateNarrative) != 0 {
		t.Error("narrative must not run after a failed extraction")
	}
	want := "received>transcribing transcribing>extracting_profile extracting_profile>failed "
	if got := tr.path(); got != want {
		t.Errorf("transitions = %q, want %q", got, want)
	}
}

type fencedChat struct{}

func (fencedChat) Name() string                     { return "groq" }
func (fencedChat) IsAvailable(context.Context) bool { return true }
func (fencedChat) Execute(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if req.JSONMode {
		return llm.CompletionResponse{Content: "Here you go:\n```json\n{\"name\": \"Ana\", \"profession\": \"Ingeniera\", \"technologies\": [\"Go\", \"Redis\"],}\n```"}, nil
	}
	return llm.CompletionResponse{Content: "Ana es ingeniera."}, nil
}

func TestRun_RecoversFencedProfile(t *testing.T) {
	chat, err := ai.NewAdapter(ai.AdapterConfig{
		Name:     "groq",
		Chat:     fencedChat{},
		Prompts:  prompt.NewCache(prompt.NewMemoryStore()),
		JSONMode: true,
		Log:      logger.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}
	speech := testutil.NewFakeService("whisper", ai.OpTranscribe)
	o, _ := newOrchestrator(t, pipeline.Config{}, []ai.Service{speech, chat})

	res, err := o.Run(context.Background(), ai.Audio{Path: "a.wav"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Profile.Name != "Ana" || res.Profile.Technologies != "Go, Redis" {
		t.Errorf("profile = %+v", res.Profile)
	}
	if res.Profile.Education != ai.Unspecified {
		t.Errorf("education = %q, want %q", res.Profile.Education, ai.Unspecified)
	}
	if res.Narrative != "Ana es ingeniera." {
		t.Errorf("narrative = %q", res.Narrative)
	}
}

type fakeExtractor struct {
	mu      sync.Mutex
	fail    map[string]error
	cleaned []string
}

func (f *fakeExtractor) ExtractAudio(_ context.Context, video string) (ai.Audio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[video]; err != nil {
		return ai.Audio{}, err
	}
	return ai.Audio{Path: video + ".wav", SampleRate: 16000, Channels: 1}, nil
}

func (f *fakeExtractor) Cleanup(a ai.Audio) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, a.Path)
	return nil
}

func TestProcess(t *testing.T) {
	groq := testutil.NewFakeService("groq", ai.Operations...)
	ext := &fakeExtractor{}
	o, _ := newOrchestrator(t, pipeline.Config{}, services(groq), pipeline.WithExtractor(ext))

	if _, err := o.Process(context.Background(), "talk.mp4"); err != nil {
		t.Fatal(err)
	}
	if got := groq.LastInput(ai.OpTranscribe).(ai.Audio); got.Path != "talk.mp4.wav" {
		t.Errorf("transcribed %q", got.Path)
	}
	if len(ext.cleaned) != 1 || ext.cleaned[0] != "talk.mp4.wav" {
		t.Errorf("cleaned = %v", ext.cleaned)
	}
}

func TestProcess_ExtractionFailure(t *testing.T) {
	groq := testutil.NewFakeService("groq", ai.Operations...)
	noAudio := goerrors.InvalidInput("video", "no audio stream")
	ext := &fakeExtractor{fail: map[string]error{"silent.mp4": noAudio}}
	o, tr := newOrchestrator(t, pipeline.Config{}, services(groq), pipeline.WithExtractor(ext))

	_, err := o.Process(context.Background(), "silent.mp4")
	if !errors.Is(err, noAudio) {
		t.Fatalf("err = %v", err)
	}
	if groq.TotalCalls() != 0 || len(ext.cleaned) != 0 {
		t.Errorf("calls = %d cleaned = %v", groq.TotalCalls(), ext.cleaned)
	}
	if got := tr.path(); got != "received>failed " {
		t.Errorf("transitions = %q", got)
	}
}

func TestProcess_WithoutExtractor(t *testing.T) {
	o, _ := newOrchestrator(t, pipeline.Config{}, services(testutil.NewFakeService("groq", ai.Operations...)))
	_, err := o.Process(context.Background(), "talk.mp4")
	if !goerrors.HasCode(err, goerrors.ErrCodeServiceUnavailable) {
		t.Errorf("err = %v, want SERVICE_UNAVAILABLE", err)
	}
}

func TestProcessAll(t *testing.T) {
	groq := testutil.NewFakeService("groq", ai.Operations...)
	ext := &fakeExtractor{fail: map[string]error{"b.mp4": goerrors.InvalidInput("video", "unreadable")}}
	o, _ := newOrchestrator(t, pipeline.Config{Workers: 2}, services(groq), pipeline.WithExtractor(ext))

	out, err := o.ProcessAll(context.Background(), []string{"a.mp4", "b.mp4", "c.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("outcomes = %d", len(out))
	}
	for i, video := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		if out[i].Video != video {
			t.Errorf("outcome %d video = %s", i, out[i].Video)
		}
	}
	if out[0].Err != nil || out[2].Err != nil || out[1].Err == nil {
		t.Errorf("errors = %v, %v, %v", out[0].Err, out[1].Err, out[2].Err)
	}
	if out[0].Result.RequestID == out[2].Result.RequestID {
		t.Error("requests share an id")
	}
}

func TestPool_BoundsConcurrentCalls(t *testing.T) {
	groq := testutil.NewFakeService("groq", ai.Operations...).
		Script(ai.OpTranscribe, testutil.Slow(20*time.Millisecond, "hola"))
	o, _ := newOrchestrator(t, pipeline.Config{Workers: 2}, services(groq))

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.Run(context.Background(), ai.Audio{Path: "a.wav"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if peak := groq.PeakConcurrency(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if groq.Calls(ai.OpTranscribe) != 6 {
		t.Errorf("transcribe calls = %d", groq.Calls(ai.OpTranscribe))
	}
}

func TestPool_CancelledRunKeepsSlotUntilCallReturns(t *testing.T) {
	groq := testutil.NewFakeService("groq", ai.Operations...).
		Script(ai.OpTranscribe, testutil.Slow(300*time.Millisecond, "hola"))
	o, _ := newOrchestrator(t, pipeline.Config{Workers: 1}, services(groq))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	if _, err := o.Run(ctx, ai.Audio{Path: "a.wav"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if o.Pool().InUse() != 1 {
		t.Errorf("in use = %d while the abandoned transcription runs", o.Pool().InUse())
	}

	if _, err := o.Run(context.Background(), ai.Audio{Path: "b.wav"}); err != nil {
		t.Fatal(err)
	}
	if peak := groq.PeakConcurrency(); peak != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak)
	}
	waitFor(t, func() bool { return o.Pool().InUse() == 0 })
}

type orderedSpeech struct {
	*testutil.FakeService
	mu    sync.Mutex
	order []string
}

func (s *orderedSpeech) Transcribe(ctx context.Context, a ai.Audio) (string, error) {
	s.mu.Lock()
	s.order = append(s.order, a.Path)
	s.mu.Unlock()
	return s.FakeService.Transcribe(ctx, a)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPool_AdmitsInArrivalOrder(t *testing.T) {
	speech := &orderedSpeech{FakeService: testutil.NewFakeService("groq", ai.Operations...)}
	o, _ := newOrchestrator(t, pipeline.Config{Workers: 1}, []ai.Service{speech})
	pool := o.Pool()

	release := make(chan struct{})
	go func() {
		_ = pool.Execute(context.Background(), func() error {
			<-release
			return nil
		})
	}()
	waitFor(t, func() bool { return pool.InUse() == 1 })

	var wg sync.WaitGroup
	for i := range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.Run(context.Background(), ai.Audio{Path: fmt.Sprint(i)}); err != nil {
				t.Error(err)
			}
		}()
		waitFor(t, func() bool { return pool.Waiting() == i+1 })
	}
	close(release)
	wg.Wait()

	if got := fmt.Sprint(speech.order); got != "[0 1 2]" {
		t.Errorf("transcribe order = %s, want [0 1 2]", got)
	}
}

func TestPool_QueueTimeout(t *testing.T) {
	groq := testutil.NewFakeService("groq", ai.Operations...)
	o, _ := newOrchestrator(t, pipeline.Config{Workers: 1, QueueTimeout: 10 * time.Millisecond}, services(groq))

	release := make(chan struct{})
	defer close(release)
	go func() {
		_ = o.Pool().Execute(context.Background(), func() error {
			<-release
			return nil
		})
	}()
	waitFor(t, func() bool { return o.Pool().InUse() == 1 })

	fields := ai.DefaultProfile().
		With(ai.FieldProfession, "Backend").
		With(ai.FieldTechnologies, "Go")
	_, err := o.Assess(context.Background(), fields)
	if !goerrors.HasCode(err, goerrors.ErrCodeServiceUnavailable) {
		t.Errorf("err = %v, want SERVICE_UNAVAILABLE", err)
	}
	if groq.TotalCalls() != 0 {
		t.Errorf("calls = %d", groq.TotalCalls())
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name    string
		fields  ai.ProfileFields
		invalid bool
	}{
		{"missing profession", ai.DefaultProfile().With(ai.FieldTechnologies, "Go"), true},
		{"missing technologies", ai.DefaultProfile().With(ai.FieldProfession, "Backend"), true},
		{"zero value", ai.ProfileFields{}, true},
		{"complete", ai.DefaultProfile().With(ai.FieldProfession, "Backend").With(ai.FieldTechnologies, "Go, Redis"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gemini := testutil.NewFakeService("gemini", ai.OpGenerateAssessment)
			o, _ := newOrchestrator(t, pipeline.Config{}, services(gemini))

			got, err := o.Assess(context.Background(), tt.fields)
			if tt.invalid {
				if !goerrors.HasCode(err, goerrors.ErrCodeInvalidInput) {
					t.Fatalf("err = %v, want INVALID_INPUT", err)
				}
				if gemini.TotalCalls() != 0 {
					t.Errorf("calls = %d, want 0", gemini.TotalCalls())
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.TechnicalTest != "# Assessment from gemini" || got.Provider != "gemini" {
				t.Errorf("assessment = %+v", got)
			}
			if got.ProfileSummary.Experience != ai.Unspecified || got.ProfileSummary.Technologies != "Go, Redis" {
				t.Errorf("summary = %+v", got.ProfileSummary)
			}
		})
	}
}

func TestAssess_TemplateMissingIsReturnedUnwrapped(t *testing.T) {
	gemini := testutil.NewFakeService("gemini", ai.OpGenerateAssessment).
		Script(ai.OpGenerateAssessment, testutil.Fail(ai.Abort(goerrors.TemplateNotFound("technical_test_generation"))))
	backup := testutil.NewFakeService("groq", ai.OpGenerateAssessment)
	o, _ := newOrchestrator(t, pipeline.Config{}, services(gemini, backup))

	fields := ai.DefaultProfile().With(ai.FieldProfession, "Backend").With(ai.FieldTechnologies, "Go")
	_, err := o.Assess(context.Background(), fields)
	if goerrors.CodeOf(err) != goerrors.ErrCodeTemplateNotFound {
		t.Fatalf("err = %v, want TEMPLATE_NOT_FOUND", err)
	}
	if backup.TotalCalls() != 0 {
		t.Error("routing continued after a missing template")
	}
}

func TestAssess_GeneratedProfiles(t *testing.T) {
	gemini := testutil.NewFakeService("gemini", ai.OpGenerateAssessment)
	o, _ := newOrchestrator(t, pipeline.Config{}, services(gemini))

	for seed := int64(1); seed <= 5; seed++ {
		fields := testutil.FakeProfile(seed)
		got, err := o.Assess(context.Background(), fields)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if in := gemini.LastInput(ai.OpGenerateAssessment); in != fields {
			t.Errorf("seed %d: provider saw %+v, want %+v", seed, in, fields)
		}
		if got.ProfileSummary.Profession != fields.Profession {
			t.Errorf("seed %d: profession = %q", seed, got.ProfileSummary.Profession)
		}
	}
	if gemini.Calls(ai.OpGenerateAssessment) != 5 {
		t.Errorf("calls = %d, want 5", gemini.Calls(ai.OpGenerateAssessment))
	}
}
