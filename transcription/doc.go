// Package transcription defines the provider contract and common types for
// speech-to-text backends.
//
// A transcription provider is a provider.RequestResponse[Request, Response],
// so the provider middlewares (logging, metrics, resilience) wrap it the same
// way they wrap chat backends.
//
// # Backends
//
//   - transcription/whisper: faster-whisper HTTP sidecar
//   - llm/openai: OpenAI-compatible /audio/transcriptions (Groq, OpenAI)
//   - llm/gemini: inline audio through generateContent
package transcription
