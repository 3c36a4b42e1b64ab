package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/llm"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/structured"
	"github.com/kbukum/vidprofile/transcription"
)

// Template names rendered by the adapter.
const (
	TemplateProfileExtraction = "profile_extraction"
	TemplateCVGeneration      = "cv_generation"
	TemplateTechnicalTest     = "technical_test_generation"
)

const (
	extractionSystem = "You are an assistant that extracts professional profile information from transcribed texts. " +
		"You MUST respond in SPANISH. You MUST respond with ONLY valid JSON. Do NOT use markdown code blocks. " +
		"Do NOT add any text before or after the JSON. Start your response with { and end with }. " +
		"Your entire response must be parseable JSON. ALL field values must be in SPANISH."
	narrativeSystem  = "You are an assistant specialized in creating professional CV profiles. Generate persuasive and professional texts in Spanish."
	assessmentSystem = "You are an expert in creating technical assessments for job candidates. Generate comprehensive and fair technical tests in Spanish, formatted in Markdown."

	// DefaultTranscribeHint describes the recordings to speech backends that
	// accept a prompt.
	DefaultTranscribeHint = "Transcribe this audio in Spanish. It's a personal or professional presentation."

	defaultCallTimeout = 60 * time.Second
	defaultLanguage    = "es"
	previewRunes       = 200
)

// Sampling holds the parameters of one text operation.
type Sampling struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Default sampling per text operation.
var (
	ExtractionSampling = Sampling{Temperature: 0.1, TopP: 0.9, MaxTokens: 1200}
	NarrativeSampling  = Sampling{Temperature: 0.3, TopP: 0.95, MaxTokens: 1800}
	AssessmentSampling = Sampling{Temperature: 0.4, TopP: 0.95, MaxTokens: 4000}
)

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Name identifies the provider.
	Name string
	// Chat serves the text operations. Nil removes them from the capability set.
	Chat llm.Provider
	// Speech serves transcription. Nil removes it from the capability set.
	Speech transcription.Provider
	// Prompts renders templates for the text operations.
	Prompts PromptSource
	// CallTimeout bounds each outbound call. Defaults to 60s.
	CallTimeout time.Duration
	// Language is the transcription language. Defaults to "es".
	Language string
	// TranscribeHint is passed to the speech backend as its prompt.
	TranscribeHint string
	// JSONMode requests JSON output for profile extraction.
	JSONMode bool
	// Log receives debug previews of raw responses.
	Log *logger.Logger
}

// Adapter implements Service over optional chat and speech backends.
type Adapter struct {
	cfg  AdapterConfig
	caps CapabilitySet
	log  *logger.Logger
}

var _ Service = (*Adapter)(nil)

// NewAdapter builds an Adapter. Its capability set is fixed here: transcribe
// when Speech is set, the text operations when Chat is set.
func NewAdapter(cfg AdapterConfig) (*Adapter, error) {
	if cfg.Name == "" {
		return nil, goerrors.MissingField("name")
	}
	if cfg.Chat == nil && cfg.Speech == nil {
		return nil, goerrors.InvalidInput(cfg.Name, "provider has neither a chat nor a speech backend")
	}
	if cfg.Chat != nil && cfg.Prompts == nil {
		return nil, goerrors.MissingField(cfg.Name + ".prompts")
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}

	var caps CapabilitySet
	if cfg.Speech != nil {
		caps |= NewCapabilitySet(OpTranscribe)
	}
	if cfg.Chat != nil {
		caps |= NewCapabilitySet(TextOperations...)
	}

	log := cfg.Log
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Adapter{cfg: cfg, caps: caps, log: log.WithComponent("ai").WithFields(logger.Fields(logger.FieldProvider, cfg.Name))}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string { return a.cfg.Name }

// IsAvailable reports whether every configured backend is available.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	if a.cfg.Chat != nil && !a.cfg.Chat.IsAvailable(ctx) {
		return false
	}
	if a.cfg.Speech != nil && !a.cfg.Speech.IsAvailable(ctx) {
		return false
	}
	return true
}

// Capabilities returns the fixed capability set.
func (a *Adapter) Capabilities() CapabilitySet { return a.caps }

// Transcribe converts the audio track to text.
func (a *Adapter) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if !a.caps.Has(OpTranscribe) {
		return "", goerrors.UnsupportedOperation(a.cfg.Name, string(OpTranscribe))
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	resp, err := a.cfg.Speech.Execute(ctx, transcription.Request{
		AudioPath: audio.Path,
		Language:  a.cfg.Language,
		Prompt:    a.cfg.TranscribeHint,
	})
	if err != nil {
		return "", a.callError(ctx, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", goerrors.MalformedOutput(a.cfg.Name, "")
	}
	return text, nil
}

// ExtractProfile asks the chat backend for a JSON profile and recovers the
// object from the raw answer.
func (a *Adapter) ExtractProfile(ctx context.Context, transcript string) (ProfileFields, error) {
	if !a.caps.Has(OpExtractProfile) {
		return ProfileFields{}, goerrors.UnsupportedOperation(a.cfg.Name, string(OpExtractProfile))
	}

	prompt, err := a.render(ctx, TemplateProfileExtraction, map[string]string{"text": transcript})
	if err != nil {
		return ProfileFields{}, err
	}

	opts := sampling(ExtractionSampling)
	if a.cfg.JSONMode {
		opts = append(opts, llm.WithJSONMode())
	}
	raw, err := a.complete(ctx, extractionSystem, prompt, opts)
	if err != nil {
		return ProfileFields{}, err
	}

	obj, err := structured.Parse(raw)
	if err != nil {
		var perr *structured.ParseError
		snippet := structured.Snippet(raw, structured.MaxSnippet)
		if errors.As(err, &perr) {
			snippet = perr.Snippet
		}
		return ProfileFields{}, goerrors.MalformedOutput(a.cfg.Name, snippet).WithCause(err)
	}
	return NewProfileFields(obj), nil
}

// GenerateNarrative writes the CV summary from the transcript and profile.
func (a *Adapter) GenerateNarrative(ctx context.Context, transcript string, fields ProfileFields) (string, error) {
	if !a.caps.Has(OpGenerateNarrative) {
		return "", goerrors.UnsupportedOperation(a.cfg.Name, string(OpGenerateNarrative))
	}

	prompt, err := a.render(ctx, TemplateCVGeneration, map[string]string{
		"transcription": transcript,
		"profile_data":  fields.JSON(),
	})
	if err != nil {
		return "", err
	}
	return a.completeText(ctx, narrativeSystem, prompt, NarrativeSampling)
}

// GenerateAssessment writes a Markdown technical test for the profile.
func (a *Adapter) GenerateAssessment(ctx context.Context, fields ProfileFields) (string, error) {
	if !a.caps.Has(OpGenerateAssessment) {
		return "", goerrors.UnsupportedOperation(a.cfg.Name, string(OpGenerateAssessment))
	}

	prompt, err := a.render(ctx, TemplateTechnicalTest, map[string]string{
		"profession":   fields.Profession,
		"technologies": fields.Technologies,
		"experience":   fields.Experience,
		"education":    fields.Education,
	})
	if err != nil {
		return "", err
	}
	return a.completeText(ctx, assessmentSystem, prompt, AssessmentSampling)
}

// render wraps template failures as request-level aborts.
func (a *Adapter) render(ctx context.Context, name string, vars map[string]string) (string, error) {
	text, err := a.cfg.Prompts.Render(ctx, name, vars)
	if err != nil {
		return "", Abort(err)
	}
	return text, nil
}

func (a *Adapter) completeText(ctx context.Context, system, prompt string, s Sampling) (string, error) {
	text, err := a.complete(ctx, system, prompt, sampling(s))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", goerrors.MalformedOutput(a.cfg.Name, "")
	}
	return text, nil
}

func (a *Adapter) complete(ctx context.Context, system, prompt string, opts []llm.Option) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	text, err := llm.Complete(ctx, a.cfg.Chat, system, prompt, opts...)
	if err != nil {
		return "", a.callError(ctx, err)
	}
	a.log.Debug("provider response", logger.Fields(
		"preview", structured.Snippet(text, previewRunes),
		"length", len(text),
	))
	return text, nil
}

// callError reports an expired call deadline as TIMEOUT when the backend
// returned a bare context error.
func (a *Adapter) callError(ctx context.Context, err error) error {
	if goerrors.CodeOf(err) == "" && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return goerrors.Timeout(a.cfg.Name).WithCause(err)
	}
	return err
}

func sampling(s Sampling) []llm.Option {
	return []llm.Option{
		llm.WithTemperature(s.Temperature),
		llm.WithTopP(s.TopP),
		llm.WithMaxTokens(s.MaxTokens),
	}
}
