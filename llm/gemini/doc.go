// Package gemini contributes the Gemini generateContent dialect to llm and a
// transcription provider that sends audio inline.
//
// Importing the package registers the "gemini" dialect. [New] builds a
// [Client] whose Chat provider is an llm.Adapter over that dialect.
package gemini
