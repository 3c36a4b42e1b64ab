// Package ai defines the capability-typed provider contract used by the
// router and the pipeline.
//
// A [Service] names its [CapabilitySet] up front; the four operations are
// transcribe, extract_profile, generate_narrative and generate_assessment.
// [Adapter] is the single implementation, built from an optional chat
// backend (llm.Provider) and an optional speech backend
// (transcription.Provider). [Registry] keeps the services for the process
// and answers candidate queries per operation. [Classify] turns an attempt's
// error into the [FailureKind] the router acts on.
//
// [ProfileFields] always carries all eight profile keys; fields the
// transcript did not provide hold [Unspecified].
package ai
