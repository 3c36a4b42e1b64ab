package process

import (
	"context"
	"os/exec"

	"github.com/kbukum/vidprofile/provider"
)

var _ provider.RequestResponse[Command, *Result] = (*Runner)(nil)

// Runner executes commands with shared defaults and optional resilience
// policies whose state persists across calls.
type Runner struct {
	cfg   Config
	state *provider.ResilienceState
}

// NewRunner creates a Runner. Nil policy fields are skipped.
func NewRunner(cfg Config, policies provider.ResilienceConfig) *Runner {
	if cfg.Name == "" {
		cfg.Name = "process"
	}
	return &Runner{cfg: cfg, state: provider.BuildResilience(policies)}
}

// Name returns the runner name.
func (r *Runner) Name() string { return r.cfg.Name }

// IsAvailable always reports true; a missing binary surfaces as ErrNotFound.
func (r *Runner) IsAvailable(_ context.Context) bool { return true }

// Available reports whether binary resolves on PATH.
func Available(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Execute runs cmd.
func (r *Runner) Execute(ctx context.Context, cmd Command) (*Result, error) {
	return r.Run(ctx, cmd)
}

// Run applies the runner defaults and executes cmd through the configured
// policies.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 && r.cfg.GracePeriod > 0 {
		cmd.GracePeriod = r.cfg.GracePeriod
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	if r.state == nil {
		return Run(ctx, cmd)
	}
	return provider.ExecuteWithResilience(ctx, r.cfg.Name, r.state, func() (*Result, error) {
		return Run(ctx, cmd)
	})
}
