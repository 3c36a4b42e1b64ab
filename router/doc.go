// Package router runs one AI operation across the registered providers.
//
// Route asks the registry for the enabled providers that support the
// operation, orders them with the configured strategy and the shared health
// tracker, and dispatches to each in turn until one succeeds. Every attempt
// is recorded in the returned Result, fed to the health tracker, and counted
// in metrics.
//
// Failures are classified with ai.Classify:
//
//	transient, malformed   next candidate (optionally retried in place)
//	fatal                  next candidate; the provider enters cooldown
//	unsupported            skipped without a health penalty
//	abort                  returned at once; no other provider can help
//
// Attempts run detached from the caller's cancellation under their own
// timeout. A caller that gives up gets its context error back immediately
// and any late provider result is discarded.
package router
