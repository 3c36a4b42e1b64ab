package pipeline

import (
	"time"
)

const defaultWorkers = 3

// DefaultLanguages are the ISO 639-1 codes transcripts are classified into
// when Config.Languages is empty.
var DefaultLanguages = []string{"es", "en", "pt", "fr", "de", "it"}

// Config configures an Orchestrator.
type Config struct {
	// Workers is the capacity of the shared worker pool.
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gte=0,lte=64"`
	// QueueTimeout bounds how long a step waits for a pool slot. 0 waits
	// until the caller's context ends.
	QueueTimeout time.Duration `mapstructure:"queue_timeout" yaml:"queue_timeout" validate:"gte=0"`
	// Languages restricts transcript language detection.
	Languages []string `mapstructure:"languages" yaml:"languages" validate:"omitempty,dive,len=2"`
	// DetectLanguage toggles transcript language detection.
	DetectLanguage *bool `mapstructure:"detect_language" yaml:"detect_language"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if len(c.Languages) == 0 {
		c.Languages = DefaultLanguages
	}
	if c.DetectLanguage == nil {
		on := true
		c.DetectLanguage = &on
	}
}
