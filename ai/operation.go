package ai

import (
	"fmt"
	"strings"
)

// Operation names one task a provider may be asked to perform.
type Operation string

// Operations every service is typed against.
const (
	OpTranscribe         Operation = "transcribe"
	OpExtractProfile     Operation = "extract_profile"
	OpGenerateNarrative  Operation = "generate_narrative"
	OpGenerateAssessment Operation = "generate_assessment"
)

// Operations lists every operation in pipeline order.
var Operations = []Operation{OpTranscribe, OpExtractProfile, OpGenerateNarrative, OpGenerateAssessment}

// TextOperations are the operations served by a chat backend.
var TextOperations = []Operation{OpExtractProfile, OpGenerateNarrative, OpGenerateAssessment}

// String returns the operation name.
func (o Operation) String() string { return string(o) }

func (o Operation) bit() CapabilitySet {
	switch o {
	case OpTranscribe:
		return 1 << 0
	case OpExtractProfile:
		return 1 << 1
	case OpGenerateNarrative:
		return 1 << 2
	case OpGenerateAssessment:
		return 1 << 3
	default:
		return 0
	}
}

// ParseOperation converts a configuration key into an Operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	if op.bit() == 0 {
		return "", fmt.Errorf("ai: unknown operation %q", s)
	}
	return op, nil
}

// CapabilitySet is the fixed set of operations a service supports.
type CapabilitySet uint8

// NewCapabilitySet builds a set from ops. Unknown operations are ignored.
func NewCapabilitySet(ops ...Operation) CapabilitySet {
	var s CapabilitySet
	for _, op := range ops {
		s |= op.bit()
	}
	return s
}

// Has reports whether op is in the set.
func (s CapabilitySet) Has(op Operation) bool {
	b := op.bit()
	return b != 0 && s&b == b
}

// Ops returns the operations in the set in pipeline order.
func (s CapabilitySet) Ops() []Operation {
	var out []Operation
	for _, op := range Operations {
		if s.Has(op) {
			out = append(out, op)
		}
	}
	return out
}

// String returns the comma-separated operation names.
func (s CapabilitySet) String() string {
	ops := s.Ops()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ",")
}
