// Package llm provides the chat-completion abstraction shared by every text
// backend.
//
// # Architecture
//
// The llm package provides:
//   - Universal types: [CompletionRequest], [CompletionResponse], [Message], [Usage]
//   - [Provider]: the RequestResponse contract every chat backend satisfies
//   - [Dialect] interface: maps universal types to/from a provider's HTTP format
//   - [Adapter]: composes the REST client and a Dialect into a complete client
//   - Dialect registry: [RegisterDialect] / [GetDialect]
//   - [Complete] with functional [Option]s for sampling parameters
//
// Backends with a maintained SDK (see llm/openai) implement [Provider]
// directly; REST-only backends (see llm/gemini) contribute a Dialect.
//
// # Usage
//
//	adapter, err := llm.New(llm.Config{
//	    Dialect: "gemini",
//	    BaseURL: "https://generativelanguage.googleapis.com/v1beta",
//	    Model:   "gemini-1.5-flash",
//	    Auth:    httpclient.APIKeyAuthHeader(key, "x-goog-api-key"),
//	})
//
//	text, err := llm.Complete(ctx, adapter, system, user,
//	    llm.WithTemperature(0.3), llm.WithMaxTokens(1800))
package llm
