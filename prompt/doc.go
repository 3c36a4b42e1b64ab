// Package prompt stores the named prompt templates used by the AI adapters.
//
// Templates use {variable} placeholders. Three defaults ship with the
// package (profile_extraction, cv_generation, technical_test_generation);
// stores seed them and fall back to them when a stored copy is missing.
//
// Backends:
//   - [MemoryStore]: in-process, the fallback when no database is configured
//   - [RedisStore]: JSON documents under "prompts:<name>"
//
// [Cache] wraps any Store with a read-through cache that is invalidated on
// Update and Reset. [Export] and [Import] move templates between stores as a
// YAML bundle. Adapters render through the cache:
//
//	text, err := cache.Render(ctx, prompt.ProfileExtraction, map[string]string{"text": transcript})
package prompt
