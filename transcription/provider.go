package transcription

import (
	"github.com/kbukum/vidprofile/provider"
)

// Provider is the interface speech-to-text backends implement. Any
// middleware-wrapped RequestResponse over the transcription types satisfies it.
type Provider interface {
	provider.RequestResponse[Request, Response]
}

// Middleware is the provider middleware specialised to transcription.
type Middleware = provider.Middleware[Request, Response]
