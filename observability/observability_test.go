package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate > 1")
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "vidprofile", "dev", "development")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned %v", err)
	}
}

func TestMetricsRecordOperation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordOperation(ctx, "groq", "extract_profile", "ok", 20*time.Millisecond)
	metrics.RecordOperation(ctx, "gemini", "extract_profile", "malformed_output", 30*time.Millisecond)
	metrics.RecordError(ctx, "malformed_output", "router")
	metrics.RecordRequestStart(ctx, "run")
	metrics.RecordRequestEnd(ctx, "run", "ok", time.Second)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	total := int64(-1)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "operation.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			total = 0
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("expected 2 recorded attempts, got %d", total)
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	if m == nil {
		t.Fatal("expected instruments")
	}
	m.RecordOperation(context.Background(), "x", "y", "ok", time.Millisecond)
}

func TestStartSpanRecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanRouterRoute)
	SetSpanAttribute(ctx, AttrProvider, "groq")
	SetSpanAttribute(ctx, AttrAttempts, 2)
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != SpanRouterRoute {
		t.Errorf("expected span %q, got %q", SpanRouterRoute, s.Name())
	}
	attrs := map[string]any{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs[AttrProvider] != "groq" {
		t.Errorf("expected provider attribute, got %v", attrs)
	}
	if attrs[AttrAttempts] != int64(2) {
		t.Errorf("expected attempts attribute 2, got %v", attrs[AttrAttempts])
	}
	if len(s.Events()) == 0 {
		t.Error("expected error event on span")
	}
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, "vidprofile", "dev", "development")
	if h := c.Health(context.Background()); h.Status == "healthy" {
		t.Errorf("healthy before start: %+v", h)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h := c.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("health = %+v", h)
	}
	if c.Metrics() == nil {
		t.Error("nil metrics")
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("describe = %+v", d)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
}
