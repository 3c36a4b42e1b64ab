package service

import (
	"errors"
	"fmt"

	"github.com/kbukum/vidprofile/config"
	"github.com/kbukum/vidprofile/media"
	"github.com/kbukum/vidprofile/observability"
	"github.com/kbukum/vidprofile/pipeline"
	"github.com/kbukum/vidprofile/providers"
	"github.com/kbukum/vidprofile/redis"
	"github.com/kbukum/vidprofile/router"
	"github.com/kbukum/vidprofile/validation"
)

// Prompt store backends.
const (
	PromptsMemory = "memory"
	PromptsRedis  = "redis"
)

// PromptsConfig selects where prompt templates live.
type PromptsConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
}

// Config is the full vidprofile configuration. Provider sections sit at the
// top level (groq, gemini, ...) so GROQ_API_KEY fills groq.api_key.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	providers.Config     `yaml:",inline" mapstructure:",squash"`

	Router        router.Config        `yaml:"router" mapstructure:"router"`
	Pipeline      pipeline.Config      `yaml:"pipeline" mapstructure:"pipeline"`
	Prompts       PromptsConfig        `yaml:"prompts" mapstructure:"prompts"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Media         media.Config         `yaml:"media" mapstructure:"media"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// Load reads config.yml, .env files and the environment into a Config.
// Empty paths use the default search locations.
func Load(configFile, envFile string) (*Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &Config{}
	if err := config.LoadConfig("vidprofile", cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills zero values in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Config.ApplyDefaults()
	c.Router.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Media.ApplyDefaults()
	c.Observability.ApplyDefaults()
	if c.Prompts.Backend == "" {
		c.Prompts.Backend = PromptsMemory
		if c.Redis.Enabled {
			c.Prompts.Backend = PromptsRedis
		}
	}
	if c.Prompts.Backend == PromptsRedis {
		c.Redis.Enabled = true
	}
	if c.Redis.Enabled {
		c.Redis.ApplyDefaults()
	}
}

// Validate checks every section and the struct tags.
func (c *Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"service", c.ServiceConfig.Validate()},
		{"providers", c.Config.Validate()},
		{"router", c.Router.Validate()},
		{"observability", c.Observability.Validate()},
	}
	if c.Redis.Enabled {
		checks = append(checks, struct {
			section string
			err     error
		}{"redis", c.Redis.Validate()})
	}

	var errs []error
	for _, ch := range checks {
		if ch.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.section, ch.err))
		}
	}
	if err := validation.Validate(c); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
