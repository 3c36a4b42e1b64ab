package provider

import "context"

// RequestResponse represents a provider that takes one input and returns one
// output: a chat completion, a transcription upload, a subprocess run.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}
