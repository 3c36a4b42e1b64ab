// Package pipeline turns a recorded presentation into a CV profile.
//
// An Orchestrator drives each request through
//
//	received → transcribing → extracting_profile → generating_narrative → complete
//
// with failed as the other terminal state. Every step is a single routed
// call made while holding a slot of the orchestrator's worker pool, so the
// number of provider calls in flight never exceeds Config.Workers no matter
// how many requests are queued. Slots are granted in arrival order.
//
// Before the first call a request checks that every step has at least one
// candidate provider and fails with NO_PROVIDER_AVAILABLE otherwise.
//
// Assess is a separate single-step flow that writes a technical test from
// profile fields.
//
// The small Stream type (FromSlice, Parallel, Collect) fans ProcessAll out
// over several videos.
package pipeline
