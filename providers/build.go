package providers

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/vidprofile/ai"
	"github.com/kbukum/vidprofile/llm"
	"github.com/kbukum/vidprofile/llm/gemini"
	"github.com/kbukum/vidprofile/llm/openai"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/observability"
	"github.com/kbukum/vidprofile/provider"
	"github.com/kbukum/vidprofile/resilience"
	"github.com/kbukum/vidprofile/transcription"
	"github.com/kbukum/vidprofile/transcription/whisper"
)

// Deps are the shared collaborators handed to every provider.
type Deps struct {
	Prompts ai.PromptSource
	Metrics *observability.Metrics
	Log     *logger.Logger
}

func (d *Deps) applyDefaults() {
	if d.Metrics == nil {
		d.Metrics = observability.NewNoopMetrics()
	}
	if d.Log == nil {
		d.Log = logger.GetGlobalLogger()
	}
}

// Build creates a service for every kind that has a credential and returns
// them in an ai.Registry. A kind whose construction fails is logged and left
// out; Build itself only fails on invalid configuration.
func Build(ctx context.Context, cfg Config, deps Deps) (*ai.Registry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deps.applyDefaults()
	log := deps.Log.WithContext(ctx).WithComponent("providers")

	factories := Factories(cfg.Providers, deps)
	reg := ai.NewRegistry(cfg.Preferences())
	for _, kind := range Kinds {
		if cfg.credential(kind) == "" {
			log.Debug("provider skipped: no credential", logger.Fields(logger.FieldProvider, kind))
			continue
		}

		settings, err := settingsFor(&cfg, kind)
		if err != nil {
			return nil, err
		}
		svc, err := factories.Create(kind, settings)
		if err != nil {
			log.Warn("provider initialisation failed", logger.MergeWithError(
				logger.Fields(logger.FieldProvider, kind), err))
			continue
		}
		if err := reg.Add(svc); err != nil {
			return nil, err
		}
		factories.Set(kind, svc)
		log.Info("provider ready", logger.Fields(
			logger.FieldProvider, kind,
			"capabilities", svc.Capabilities().String(),
		))
	}

	if reg.Len() == 0 {
		log.Warn("no AI providers configured")
	}
	return reg, nil
}

// Factories returns the factory registry for every known kind. Each factory
// takes the kind's section decoded into a map.
func Factories(s Settings, deps Deps) *provider.Registry[ai.Service] {
	deps.applyDefaults()
	r := provider.NewRegistry[ai.Service]()
	for _, kind := range []string{openai.KindGroq, openai.KindOpenAI, openai.KindOpenRouter, openai.KindHuggingFace} {
		r.RegisterFactory(kind, openAIFactory(kind, s, deps))
	}
	r.RegisterFactory(KindGemini, geminiFactory(s, deps))
	r.RegisterFactory(KindWhisper, whisperFactory(s, deps))
	return r
}

func openAIFactory(kind string, s Settings, deps Deps) provider.Factory[ai.Service] {
	return func(raw map[string]any) (ai.Service, error) {
		var bc BackendConfig
		if err := decode(raw, &bc); err != nil {
			return nil, err
		}
		client, err := openai.New(openai.Config{
			Name:               kind,
			APIKey:             bc.APIKey,
			BaseURL:            bc.BaseURL,
			Model:              bc.Model,
			TranscriptionModel: bc.TranscriptionModel,
			Timeout:            bc.Timeout,
		})
		if err != nil {
			return nil, err
		}

		var speech transcription.Provider
		if sp := client.Speech(); sp != nil {
			speech = wrapSpeech(kind, sp, bc.RateLimit, bc.Burst, deps)
		}
		return ai.NewAdapter(ai.AdapterConfig{
			Name:           kind,
			Chat:           wrapChat(kind, client.Chat(), bc.RateLimit, bc.Burst, deps),
			Speech:         speech,
			Prompts:        deps.Prompts,
			CallTimeout:    s.CallTimeout,
			Language:       s.Language,
			TranscribeHint: ai.DefaultTranscribeHint,
			JSONMode:       kind == openai.KindGroq || kind == openai.KindOpenAI,
			Log:            deps.Log,
		})
	}
}

func geminiFactory(s Settings, deps Deps) provider.Factory[ai.Service] {
	return func(raw map[string]any) (ai.Service, error) {
		var bc BackendConfig
		if err := decode(raw, &bc); err != nil {
			return nil, err
		}
		client, err := gemini.New(gemini.Config{
			Name:    KindGemini,
			APIKey:  bc.APIKey,
			BaseURL: bc.BaseURL,
			Model:   bc.Model,
			Timeout: bc.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return ai.NewAdapter(ai.AdapterConfig{
			Name:        KindGemini,
			Chat:        wrapChat(KindGemini, client.Chat(), bc.RateLimit, bc.Burst, deps),
			Speech:      wrapSpeech(KindGemini, client.Speech(), bc.RateLimit, bc.Burst, deps),
			Prompts:     deps.Prompts,
			CallTimeout: s.CallTimeout,
			Language:    s.Language,
			JSONMode:    true,
			Log:         deps.Log,
		})
	}
}

func whisperFactory(s Settings, deps Deps) provider.Factory[ai.Service] {
	return func(raw map[string]any) (ai.Service, error) {
		var wc WhisperConfig
		if err := decode(raw, &wc); err != nil {
			return nil, err
		}
		p, err := whisper.NewProvider(whisper.Config{
			URL:      wc.URL,
			Model:    wc.Model,
			Language: s.Language,
			Timeout:  wc.Timeout,
			Token:    wc.Token,
		})
		if err != nil {
			return nil, err
		}
		return ai.NewAdapter(ai.AdapterConfig{
			Name:        KindWhisper,
			Speech:      wrapSpeech(KindWhisper, p, wc.RateLimit, wc.Burst, deps),
			CallTimeout: s.CallTimeout,
			Language:    s.Language,
			Log:         deps.Log,
		})
	}
}

func wrapChat(name string, p llm.Provider, rps float64, burst int, deps Deps) llm.Provider {
	mws := []llm.Middleware{
		provider.WithTracing[llm.CompletionRequest, llm.CompletionResponse]("llm"),
		provider.WithLogging[llm.CompletionRequest, llm.CompletionResponse](deps.Log),
		provider.WithMetrics[llm.CompletionRequest, llm.CompletionResponse](deps.Metrics, "chat"),
	}
	if rc, ok := resilienceFor(name, rps, burst); ok {
		mws = append(mws, provider.ResilienceMiddleware[llm.CompletionRequest, llm.CompletionResponse](rc))
	}
	return provider.Chain(mws...)(p)
}

func wrapSpeech(name string, p transcription.Provider, rps float64, burst int, deps Deps) transcription.Provider {
	mws := []transcription.Middleware{
		provider.WithTracing[transcription.Request, transcription.Response]("transcription"),
		provider.WithLogging[transcription.Request, transcription.Response](deps.Log),
		provider.WithMetrics[transcription.Request, transcription.Response](deps.Metrics, "transcribe"),
	}
	if rc, ok := resilienceFor(name, rps, burst); ok {
		mws = append(mws, provider.ResilienceMiddleware[transcription.Request, transcription.Response](rc))
	}
	return provider.Chain(mws...)(p)
}

// resilienceFor builds the rate limiter policy. Retries and breakers are left
// to the router so each failure is counted once.
func resilienceFor(name string, rps float64, burst int) (provider.ResilienceConfig, bool) {
	if rps <= 0 {
		return provider.ResilienceConfig{}, false
	}
	if burst <= 0 {
		burst = 1
	}
	return provider.ResilienceConfig{
		RateLimiter: &resilience.RateLimiterConfig{Name: name, Rate: rps, Burst: burst},
	}, true
}

func settingsFor(cfg *Config, kind string) (map[string]any, error) {
	var src any
	if kind == KindWhisper {
		src = cfg.Whisper
	} else {
		src = *cfg.backend(kind)
	}
	out := make(map[string]any)
	if err := mapstructure.Decode(src, &out); err != nil {
		return nil, fmt.Errorf("providers: encode %s settings: %w", kind, err)
	}
	return out, nil
}

func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
