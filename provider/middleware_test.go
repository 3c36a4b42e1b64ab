package provider_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/observability"
	"github.com/kbukum/vidprofile/provider"
)

type echoProvider struct{ name string }

func (p *echoProvider) Name() string                       { return p.name }
func (p *echoProvider) IsAvailable(_ context.Context) bool { return true }
func (p *echoProvider) Execute(_ context.Context, in string) (string, error) {
	return "echo:" + in, nil
}

type failingEcho struct{ err error }

func (p *failingEcho) Name() string                       { return "fail" }
func (p *failingEcho) IsAvailable(_ context.Context) bool { return true }
func (p *failingEcho) Execute(_ context.Context, _ string) (string, error) {
	return "", p.err
}

func TestChain_Empty(t *testing.T) {
	wrapped := provider.Chain[string, string]()(&echoProvider{name: "test"})
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(tag string) provider.Middleware[string, string] {
		return func(inner provider.RequestResponse[string, string]) provider.RequestResponse[string, string] {
			return &orderTracker{inner: inner, tag: tag, order: &order}
		}
	}

	wrapped := provider.Chain(mw("A"), mw("B"), mw("C"))(&echoProvider{name: "test"})
	if _, err := wrapped.Execute(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}

	want := "A:before B:before C:before C:after B:after A:after"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

type orderTracker struct {
	inner provider.RequestResponse[string, string]
	tag   string
	order *[]string
}

func (o *orderTracker) Name() string                         { return o.inner.Name() }
func (o *orderTracker) IsAvailable(ctx context.Context) bool { return o.inner.IsAvailable(ctx) }
func (o *orderTracker) Execute(ctx context.Context, input string) (string, error) {
	*o.order = append(*o.order, o.tag+":before")
	result, err := o.inner.Execute(ctx, input)
	*o.order = append(*o.order, o.tag+":after")
	return result, err
}

func TestWithLogging_RecordsErrorCode(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", buf)

	p := &failingEcho{err: goerrors.RateLimited("groq")}
	wrapped := provider.WithLogging[string, string](log)(p)

	if _, err := wrapped.Execute(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if line[logger.FieldErrorCode] != "RATE_LIMITED" {
		t.Errorf("expected error_code RATE_LIMITED, got %v", line[logger.FieldErrorCode])
	}
	if line[logger.FieldProvider] != "fail" {
		t.Errorf("expected provider=fail, got %v", line[logger.FieldProvider])
	}
	if line["level"] != "warn" {
		t.Errorf("expected warn level, got %v", line["level"])
	}
}

func TestMiddlewares_DelegateNameAndAvailability(t *testing.T) {
	p := &echoProvider{name: "avail-test"}
	wrapped := provider.Chain(
		provider.WithLogging[string, string](logger.Nop()),
		provider.WithMetrics[string, string](observability.NewNoopMetrics(), "chat"),
		provider.WithTracing[string, string]("llm"),
	)(p)

	if wrapped.Name() != "avail-test" {
		t.Errorf("expected name to delegate, got %q", wrapped.Name())
	}
	if !wrapped.IsAvailable(context.Background()) {
		t.Error("expected IsAvailable to delegate to inner provider")
	}
	result, err := wrapped.Execute(context.Background(), "hello")
	if err != nil || result != "echo:hello" {
		t.Fatalf("expected echo:hello, got %q, err %v", result, err)
	}
}

func TestWithMetrics_PassesErrorThrough(t *testing.T) {
	sentinel := errors.New("intentional failure")
	wrapped := provider.WithMetrics[string, string](observability.NewNoopMetrics(), "chat")(&failingEcho{err: sentinel})
	if _, err := wrapped.Execute(context.Background(), "x"); !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel error, got %v", err)
	}
}
