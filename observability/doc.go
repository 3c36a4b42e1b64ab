// Package observability wires OpenTelemetry tracing and metrics.
//
// When disabled, the global no-op providers stay installed and every
// instrument and span created through this package is free to call.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "vidprofile", version, env)
//	defer shutdown(context.Background())
//
//	metrics, _ := observability.NewMetrics(observability.Meter("router"))
//	metrics.RecordOperation(ctx, "groq", "extract_profile", "ok", d)
package observability
