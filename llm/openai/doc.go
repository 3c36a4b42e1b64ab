// Package openai adapts OpenAI-compatible endpoints (Groq, OpenAI,
// OpenRouter, the Hugging Face router) to the llm and transcription
// provider contracts through github.com/sashabaranov/go-openai.
//
// One [Client] serves both contracts: [Client.Chat] for completions and
// [Client.Speech] for audio transcription when a transcription model is
// configured. [Preset] carries the endpoint and model defaults per kind.
package openai
