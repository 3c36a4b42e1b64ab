package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/vidprofile/ai"
	"github.com/kbukum/vidprofile/bootstrap"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/prompt"
	"github.com/kbukum/vidprofile/router"
	"github.com/kbukum/vidprofile/testutil"
)

type nopExtractor struct{}

func (nopExtractor) ExtractAudio(context.Context, string) (ai.Audio, error) {
	return ai.Audio{Path: "a.wav"}, nil
}

func (nopExtractor) Cleanup(ai.Audio) error { return nil }

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Groq.APIKey = "gsk-test"
	cfg.Whisper.URL = "http://127.0.0.1:9"
	cfg.Media.TempDir = t.TempDir()
	cfg.ApplyDefaults()
	return cfg
}

func TestLoad(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-env")
	path := testutil.WriteFile(t, "config.yml", []byte(`
name: vidprofile
environment: staging
groq:
  model: llama-3.3-70b-versatile
router:
  strategy: least_failures
  attempt_timeout: 20s
pipeline:
  workers: 2
prompts:
  backend: memory
`))

	cfg, err := Load(path, "/nonexistent/.env")
	if err != nil {
		t.Fatal(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Environment != "staging" || cfg.Groq.APIKey != "gsk-env" || cfg.Groq.Model != "llama-3.3-70b-versatile" {
		t.Errorf("service/groq = %+v %+v", cfg.ServiceConfig, cfg.Groq)
	}
	if cfg.Router.Strategy != router.StrategyLeastFailures || cfg.Router.AttemptTimeout != 20*time.Second {
		t.Errorf("router = %+v", cfg.Router)
	}
	if cfg.Pipeline.Workers != 2 {
		t.Errorf("workers = %d", cfg.Pipeline.Workers)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown strategy", func(c *Config) { c.Router.Strategy = "random" }, "router"},
		{"unknown prompt backend", func(c *Config) { c.Prompts.Backend = "mongo" }, "prompts.backend"},
		{"too many workers", func(c *Config) { c.Pipeline.Workers = 500 }, "pipeline.workers"},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestConfig_PromptBackendDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Redis.Enabled = true
	cfg.ApplyDefaults()
	if cfg.Prompts.Backend != PromptsRedis {
		t.Errorf("backend = %q, want redis", cfg.Prompts.Backend)
	}

	cfg = &Config{Prompts: PromptsConfig{Backend: PromptsRedis}}
	cfg.ApplyDefaults()
	if !cfg.Redis.Enabled {
		t.Error("redis backend should enable redis")
	}
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	svc, err := Build(context.Background(), cfg, Deps{Log: logger.Nop(), Extractor: nopExtractor{}})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, s := range svc.Registry.Services() {
		names = append(names, s.Name())
	}
	if got := strings.Join(names, ","); got != "groq,whisper" {
		t.Errorf("providers = %s", got)
	}
	if !svc.Router.HasCandidates(ai.OpExtractProfile) {
		t.Error("groq should serve extraction")
	}
	templates, err := svc.Prompts.List(context.Background())
	if err != nil || len(templates) != 3 {
		t.Errorf("templates = %d, err = %v", len(templates), err)
	}
	if svc.Orchestrator == nil {
		t.Error("missing orchestrator")
	}
}

func TestBuild_RedisPrompts(t *testing.T) {
	client, mini := testutil.Redis(t)
	cfg := testConfig(t)
	cfg.Prompts.Backend = PromptsRedis

	svc, err := Build(context.Background(), cfg, Deps{Redis: client, Log: logger.Nop(), Extractor: nopExtractor{}})
	if err != nil {
		t.Fatal(err)
	}
	if !mini.Exists(prompt.KeyPrefix + ":" + prompt.CVGeneration) {
		t.Error("default template not seeded")
	}
	if _, err := svc.Prompts.Update(context.Background(), prompt.CVGeneration, "Resume {transcription} {profile_data}"); err != nil {
		t.Fatal(err)
	}
	tmpl, err := svc.Prompts.Get(context.Background(), prompt.CVGeneration)
	if err != nil || !strings.HasPrefix(tmpl.Template, "Resume") {
		t.Errorf("template = %+v, err = %v", tmpl, err)
	}
}

func TestBuild_RedisBackendWithoutClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.Prompts.Backend = PromptsRedis
	_, err := Build(context.Background(), cfg, Deps{Log: logger.Nop(), Extractor: nopExtractor{}})
	if !goerrors.HasCode(err, goerrors.ErrCodeServiceUnavailable) {
		t.Errorf("err = %v, want SERVICE_UNAVAILABLE", err)
	}
}

func TestRegister(t *testing.T) {
	app, err := bootstrap.NewApp(testConfig(t), bootstrap.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	svc, err := Register(app)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Orchestrator != nil {
		t.Fatal("service built before startup")
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = app.Shutdown(ctx) }()

	if svc.Orchestrator == nil || svc.Registry.Len() != 2 {
		t.Errorf("service = %+v", svc)
	}
	if app.Components.Get("telemetry") == nil {
		t.Error("telemetry component not registered")
	}
	entries := app.Summary.Entries(ctx, app.Components)
	if len(entries) != 3 {
		t.Errorf("summary entries = %+v", entries)
	}
}
