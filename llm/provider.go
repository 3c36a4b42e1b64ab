package llm

import (
	"github.com/kbukum/vidprofile/provider"
)

// Provider is the interface chat backends implement. Any middleware-wrapped
// RequestResponse over the completion types satisfies it.
type Provider interface {
	provider.RequestResponse[CompletionRequest, CompletionResponse]
}

// Middleware is the provider middleware specialised to chat completions.
type Middleware = provider.Middleware[CompletionRequest, CompletionResponse]
