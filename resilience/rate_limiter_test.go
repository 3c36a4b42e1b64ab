package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_AllowsBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "groq", Rate: 1, Burst: 2})
	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if rl.Allow() {
		t.Error("expected third request to be limited")
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "test", Rate: 1, Burst: 1})
	if err := rl.Execute(func() error { return nil }); err != nil {
		t.Fatalf("first call should pass, got %v", err)
	}
	err := rl.Execute(func() error {
		t.Error("should not run")
		return nil
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "test", Rate: 0.01, Burst: 1})
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("expected Wait to fail when the next token is far away")
	}
}

func TestRateLimiter_WaitGetsToken(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "test", Rate: 100, Burst: 1})
	rl.Allow()
	if err := rl.Wait(context.Background()); err != nil {
		t.Errorf("expected token within ~10ms, got %v", err)
	}
}

func TestRateLimiter_OnLimitCallback(t *testing.T) {
	var limited string
	rl := NewRateLimiter(RateLimiterConfig{Name: "gemini", Rate: 1, Burst: 1, OnLimit: func(name string) { limited = name }})
	rl.Allow()
	rl.Allow()
	if limited != "gemini" {
		t.Errorf("expected OnLimit for gemini, got %q", limited)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.5})
	if rl.Burst() != 1 {
		t.Errorf("expected burst clamped to 1, got %d", rl.Burst())
	}
	if rl.Rate() != 0.5 {
		t.Errorf("expected rate 0.5, got %v", rl.Rate())
	}
}
