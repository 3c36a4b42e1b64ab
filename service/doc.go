// Package service wires configuration into a running vidprofile: the
// prompt store (memory or Redis), the AI providers with credentials, the
// router, the ffmpeg extractor and the pipeline orchestrator.
package service
