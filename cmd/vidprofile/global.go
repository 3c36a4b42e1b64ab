package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/vidprofile/bootstrap"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/service"
	"github.com/kbukum/vidprofile/validation"
)

// GlobalOptions are shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string
	RequestID  string
}

func DefaultGlobalOptions() *GlobalOptions {
	return &GlobalOptions{}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Path to config.yml. Defaults to the standard search locations.")
	fs.StringVar(&o.EnvFile, "env-file", o.EnvFile, "Path to a .env file with provider credentials.")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Override logging.level (debug, info, warn, error).")
	fs.StringVar(&o.RequestID, "request-id", o.RequestID, "UUID attached to the request logs. Generated when empty.")
}

func (o *GlobalOptions) Validate() error {
	if err := validation.New().OptionalUUID("request-id", o.RequestID).Validate(); err != nil {
		return err
	}
	return nil
}

// run loads the configuration, starts the application and calls fn with the
// assembled service.
func (o *GlobalOptions) run(ctx context.Context, fn func(ctx context.Context, svc *service.Service) error) error {
	if err := o.Validate(); err != nil {
		return err
	}

	cfg, err := service.Load(o.ConfigFile, o.EnvFile)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.LogLevel)
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	svc, err := service.Register(app)
	if err != nil {
		return err
	}

	if o.RequestID != "" {
		ctx = logger.ContextWithRequestID(ctx, o.RequestID)
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
