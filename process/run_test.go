package process_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/process"
	"github.com/kbukum/vidprofile/provider"
	"github.com/kbukum/vidprofile/resilience"
)

func TestRunEcho(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "echo",
		Args:   []string{"hello", "world"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := strings.TrimSpace(string(result.Stdout)); out != "hello world" {
		t.Fatalf("expected 'hello world', got %q", out)
	}
}

func TestRunStdin(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "cat",
		Stdin:  strings.NewReader("from stdin"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := string(result.Stdout); out != "from stdin" {
		t.Fatalf("expected 'from stdin', got %q", out)
	}
}

func TestRunExitError(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo first >&2; echo 'no streams' >&2; exit 42"},
	})
	var exitErr *process.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if exitErr.ExitCode != 42 || result.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %d", exitErr.ExitCode)
	}
	if !strings.HasSuffix(err.Error(), ": no streams") {
		t.Errorf("error should end with the last stderr line: %v", err)
	}
}

func TestRunBinaryNotFound(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{Binary: "definitely-not-a-binary-1234"})
	if !errors.Is(err, process.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if process.Available("definitely-not-a-binary-1234") {
		t.Error("Available() = true for a missing binary")
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if result.Duration > 5*time.Second {
		t.Fatalf("process took too long to kill: %v", result.Duration)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	if _, err := process.Run(context.Background(), process.Command{}); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestRunEnv(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo $MY_TEST_VAR"},
		Env:    []string{"MY_TEST_VAR=hello123"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := strings.TrimSpace(string(result.Stdout)); out != "hello123" {
		t.Fatalf("expected 'hello123', got %q", out)
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := process.NewRunner(process.Config{Name: "sleeper", Timeout: 50 * time.Millisecond}, provider.ResilienceConfig{})
	start := time.Now()
	_, err := r.Execute(context.Background(), process.Command{Binary: "sleep", Args: []string{"5"}})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("runner timeout not applied")
	}
}

func TestRunnerCircuitBreakerTrips(t *testing.T) {
	r := process.NewRunner(process.Config{Name: "ffmpeg"}, provider.ResilienceConfig{
		CircuitBreaker: &resilience.CircuitBreakerConfig{
			Name:        "ffmpeg",
			MaxFailures: 2,
			Timeout:     time.Minute,
		},
	})
	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background(), process.Command{Binary: "false"}); err == nil {
			t.Fatal("expected failure")
		}
	}
	_, err := r.Run(context.Background(), process.Command{Binary: "echo"})
	if !goerrors.HasCode(err, goerrors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE once the breaker opens, got %v", err)
	}
}
