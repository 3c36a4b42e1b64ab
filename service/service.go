package service

import (
	"context"
	"strings"

	"github.com/kbukum/vidprofile/ai"
	"github.com/kbukum/vidprofile/bootstrap"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/media"
	"github.com/kbukum/vidprofile/observability"
	"github.com/kbukum/vidprofile/pipeline"
	"github.com/kbukum/vidprofile/prompt"
	"github.com/kbukum/vidprofile/providers"
	"github.com/kbukum/vidprofile/redis"
	"github.com/kbukum/vidprofile/router"
)

// Service is the assembled application: prompt templates, the provider
// registry, the router and the orchestrator on top of them.
type Service struct {
	Prompts      *prompt.Cache
	Registry     *ai.Registry
	Router       *router.Router
	Orchestrator *pipeline.Orchestrator
	Extractor    media.Extractor
}

// Deps are the collaborators Build does not create itself.
type Deps struct {
	// Redis backs the prompt store when the redis backend is selected.
	Redis   *redis.Client
	Metrics *observability.Metrics
	Log     *logger.Logger
	// Extractor replaces the ffmpeg extractor.
	Extractor media.Extractor
	// Summary receives one entry per provider.
	Summary *bootstrap.Summary
}

// Register adds the infrastructure components to app and fills the returned
// Service during the app's configure phase.
func Register(app *bootstrap.App[*Config]) (*Service, error) {
	cfg := app.Cfg
	svc := &Service{}

	var redisComp *redis.Component
	if cfg.Redis.Enabled {
		redisComp = redis.NewComponent(cfg.Redis, app.Logger)
		if err := app.RegisterComponent(redisComp); err != nil {
			return nil, err
		}
	}
	telemetry := observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment)
	if err := app.RegisterComponent(telemetry); err != nil {
		return nil, err
	}

	app.OnConfigure(func(ctx context.Context, app *bootstrap.App[*Config]) error {
		deps := Deps{Metrics: telemetry.Metrics(), Log: app.Logger, Summary: app.Summary}
		if redisComp != nil {
			deps.Redis = redisComp.Client()
		}
		built, err := Build(ctx, app.Cfg, deps)
		if err != nil {
			return err
		}
		*svc = *built
		return nil
	})
	return svc, nil
}

// Build assembles a Service from cfg. Defaults must already be applied.
func Build(ctx context.Context, cfg *Config, deps Deps) (*Service, error) {
	if deps.Log == nil {
		deps.Log = logger.GetGlobalLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewNoopMetrics()
	}
	log := deps.Log.WithComponent("service")

	store, err := promptStore(ctx, cfg.Prompts.Backend, deps)
	if err != nil {
		return nil, err
	}
	cache := prompt.NewCache(store)

	reg, err := providers.Build(ctx, cfg.Config, providers.Deps{Prompts: cache, Metrics: deps.Metrics, Log: deps.Log})
	if err != nil {
		return nil, err
	}
	rt := router.New(reg, cfg.Router, router.WithMetrics(deps.Metrics), router.WithLogger(deps.Log))

	extractor := deps.Extractor
	if extractor == nil {
		ff, err := media.NewFFmpeg(cfg.Media, deps.Log)
		if err != nil {
			return nil, err
		}
		if !ff.IsAvailable(ctx) {
			log.Warn("ffmpeg not found; video processing will fail", logger.Fields("binary", cfg.Media.Binary))
		}
		extractor = ff
	}

	orch := pipeline.New(rt, cfg.Pipeline,
		pipeline.WithExtractor(extractor),
		pipeline.WithLogger(deps.Log),
		pipeline.WithMetrics(deps.Metrics),
	)

	if deps.Summary != nil {
		for _, d := range reg.Descriptors() {
			deps.Summary.Track(d.Name, "provider", d.Capabilities.String(), d.Enabled)
		}
	}

	return &Service{
		Prompts:      cache,
		Registry:     reg,
		Router:       rt,
		Orchestrator: orch,
		Extractor:    extractor,
	}, nil
}

func promptStore(ctx context.Context, backend string, deps Deps) (prompt.Store, error) {
	switch strings.ToLower(backend) {
	case "", PromptsMemory:
		return prompt.NewMemoryStore(), nil
	case PromptsRedis:
		if deps.Redis == nil {
			return nil, goerrors.ServiceUnavailable("redis")
		}
		return prompt.NewRedisStore(ctx, deps.Redis, deps.Log)
	default:
		return nil, goerrors.InvalidInput("prompts.backend", "unknown backend "+backend)
	}
}
