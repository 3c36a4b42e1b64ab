package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/vidprofile/ai"
)

// Step is one scripted answer.
type Step struct {
	Text    string
	Profile ai.ProfileFields
	Err     error
	// Delay holds the call before answering. A cancelled context ends the
	// wait with ctx.Err().
	Delay time.Duration
	// Block waits until the context is done.
	Block bool
}

// Text answers with s.
func Text(s string) Step { return Step{Text: s} }

// Profile answers with p.
func Profile(p ai.ProfileFields) Step { return Step{Profile: p} }

// Fail answers with err.
func Fail(err error) Step { return Step{Err: err} }

// Slow answers with s after d.
func Slow(d time.Duration, s string) Step { return Step{Text: s, Delay: d} }

// Hang blocks until the context is done.
func Hang() Step { return Step{Block: true} }

// FakeService is a scripted ai.Service. Once a script runs out the last step
// repeats; an operation with no script answers with a default success.
type FakeService struct {
	name string
	caps ai.CapabilitySet

	mu      sync.Mutex
	scripts map[ai.Operation][]Step
	calls   map[ai.Operation]int
	last    map[ai.Operation]any

	active     int
	peakActive int
	available  bool
}

var _ ai.Service = (*FakeService)(nil)

// NewFakeService creates a fake supporting ops.
func NewFakeService(name string, ops ...ai.Operation) *FakeService {
	return &FakeService{
		name:      name,
		caps:      ai.NewCapabilitySet(ops...),
		scripts:   make(map[ai.Operation][]Step),
		calls:     make(map[ai.Operation]int),
		last:      make(map[ai.Operation]any),
		available: true,
	}
}

// Script appends steps for op.
func (f *FakeService) Script(op ai.Operation, steps ...Step) *FakeService {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[op] = append(f.scripts[op], steps...)
	return f
}

// SetAvailable sets what IsAvailable reports.
func (f *FakeService) SetAvailable(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = ok
}

// Calls returns how many times op was invoked, including calls outside the
// capability set.
func (f *FakeService) Calls(op ai.Operation) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of invocations across all operations.
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// LastInput returns the input of the most recent call to op: ai.Audio for
// transcribe, the transcript for extraction, ai.ProfileFields otherwise.
func (f *FakeService) LastInput(op ai.Operation) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[op]
}

// PeakConcurrency returns the most calls that were in flight at once.
func (f *FakeService) PeakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peakActive
}

func (f *FakeService) Name() string { return f.name }

func (f *FakeService) IsAvailable(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

func (f *FakeService) Capabilities() ai.CapabilitySet { return f.caps }

func (f *FakeService) Transcribe(ctx context.Context, audio ai.Audio) (string, error) {
	s, err := f.play(ctx, ai.OpTranscribe, audio)
	if err != nil {
		return "", err
	}
	if s.Text == "" {
		return "transcript from " + f.name, nil
	}
	return s.Text, nil
}

func (f *FakeService) ExtractProfile(ctx context.Context, transcript string) (ai.ProfileFields, error) {
	s, err := f.play(ctx, ai.OpExtractProfile, transcript)
	if err != nil {
		return ai.ProfileFields{}, err
	}
	if s.Profile == (ai.ProfileFields{}) {
		return ai.DefaultProfile().With(ai.FieldName, f.name), nil
	}
	return s.Profile, nil
}

func (f *FakeService) GenerateNarrative(ctx context.Context, _ string, fields ai.ProfileFields) (string, error) {
	s, err := f.play(ctx, ai.OpGenerateNarrative, fields)
	if err != nil {
		return "", err
	}
	if s.Text == "" {
		return "narrative from " + f.name, nil
	}
	return s.Text, nil
}

func (f *FakeService) GenerateAssessment(ctx context.Context, fields ai.ProfileFields) (string, error) {
	s, err := f.play(ctx, ai.OpGenerateAssessment, fields)
	if err != nil {
		return "", err
	}
	if s.Text == "" {
		return "# Assessment from " + f.name, nil
	}
	return s.Text, nil
}

func (f *FakeService) play(ctx context.Context, op ai.Operation, input any) (Step, error) {
	f.mu.Lock()
	f.calls[op]++
	f.last[op] = input
	if !f.caps.Has(op) {
		f.mu.Unlock()
		return Step{}, unsupported(f.name, op)
	}
	var step Step
	if q := f.scripts[op]; len(q) > 0 {
		step = q[0]
		if len(q) > 1 {
			f.scripts[op] = q[1:]
		}
	}
	f.active++
	if f.active > f.peakActive {
		f.peakActive = f.active
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	switch {
	case step.Block:
		<-ctx.Done()
		return Step{}, ctx.Err()
	case step.Delay > 0:
		t := time.NewTimer(step.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return Step{}, ctx.Err()
		}
	}
	if step.Err != nil {
		return Step{}, step.Err
	}
	return step, nil
}
