package ai

import (
	"context"

	"github.com/kbukum/vidprofile/provider"
)

// Audio is an extracted audio track ready for transcription.
type Audio struct {
	Path       string `json:"path"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// Service is the capability-typed contract every provider is used through.
// Calling an operation outside Capabilities fails with
// UNSUPPORTED_OPERATION without contacting the backend.
type Service interface {
	provider.Provider

	Capabilities() CapabilitySet
	Transcribe(ctx context.Context, audio Audio) (string, error)
	ExtractProfile(ctx context.Context, transcript string) (ProfileFields, error)
	GenerateNarrative(ctx context.Context, transcript string, fields ProfileFields) (string, error)
	GenerateAssessment(ctx context.Context, fields ProfileFields) (string, error)
}

// PromptSource renders named prompt templates.
type PromptSource interface {
	Render(ctx context.Context, name string, vars map[string]string) (string, error)
}
