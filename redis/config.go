package redis

import (
	"time"

	"github.com/kbukum/vidprofile/validation"
)

// Config holds the Redis connection settings used by the prompt store.
type Config struct {
	// Name identifies the client in logs. Defaults to "redis".
	Name    string `yaml:"name" mapstructure:"name"`
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`

	// Addr is host:port.
	Addr     string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"gte=0,lte=15"`

	PoolSize     int `yaml:"pool_size" mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int `yaml:"min_idle_conns" mapstructure:"min_idle_conns" validate:"gte=0"`
	MaxRetries   int `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`

	MinRetryBackoff time.Duration `yaml:"min_retry_backoff" mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `yaml:"max_retry_backoff" mapstructure:"max_retry_backoff"`
	DialTimeout     time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// PoolTimeout bounds the wait for a pooled connection. Zero lets go-redis
	// derive it from ReadTimeout.
	PoolTimeout time.Duration `yaml:"pool_timeout" mapstructure:"pool_timeout"`
	// ConnMaxIdleTime closes idle connections after this long. Zero keeps them.
	ConnMaxIdleTime time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "redis"
	}
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.MinRetryBackoff <= 0 {
		c.MinRetryBackoff = 8 * time.Millisecond
	}
	if c.MaxRetryBackoff <= 0 {
		c.MaxRetryBackoff = 512 * time.Millisecond
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate checks an enabled configuration. A disabled one is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New().
		Required("addr", c.Addr).
		Custom(c.MaxRetryBackoff >= c.MinRetryBackoff, "max_retry_backoff", "must not be below min_retry_backoff")
	if err := v.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}
