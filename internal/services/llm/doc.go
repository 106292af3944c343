// Package llm provides an OpenAI-compatible chat client for structured
// generation.
//
// This package is used by:
//   - Outline stage: structure extracted paper text into slides
//   - Narration stage: compose the spoken script for each slide
//   - Digest service: generate summaries and quiz questions
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
// When unconfigured, callers should fall back to sensible defaults.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.CompleteText: send system/user prompts, receive prose.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output tolerating code fences and noise.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
//
// # Fallback
//
// If the LLM is unavailable or returns an error, callers should fall back to
// deterministic defaults rather than failing the pipeline.
package llm
