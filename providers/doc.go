// Package providers turns configuration into the set of AI services the
// router draws from.
//
// Build walks the known kinds in a fixed order (groq, gemini, openai,
// openrouter, huggingface, whisper). A kind without a credential is skipped;
// a kind whose construction fails is logged as a warning and skipped. Every
// backend is wrapped with tracing, logging and metrics middleware, plus a
// rate limiter when one is configured.
package providers
