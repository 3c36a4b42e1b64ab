package pipeline

import (
	"time"
)

// State is the position of one request in the pipeline.
type State int

const (
	StateReceived State = iota
	StateTranscribing
	StateExtractingProfile
	StateGeneratingNarrative
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateTranscribing:
		return "transcribing"
	case StateExtractingProfile:
		return "extracting_profile"
	case StateGeneratingNarrative:
		return "generating_narrative"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Transition is one state change of a request. Err is set when To is
// StateFailed.
type Transition struct {
	RequestID string
	From      State
	To        State
	Err       error
	At        time.Time
}
