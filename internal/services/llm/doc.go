// Package llm provides a chat completions client for OpenAI-compatible
// endpoints that returns JSON-only answers.
//
// Client.CompleteJSON sends a system and user prompt with
// response_format=json_object and returns the raw JSON text. DecodeJSON parses
// it while tolerating code fences. Requests are retried on HTTP 408/429/5xx,
// empty answers and network timeouts with exponential backoff (base 1s, max
// 10s, five attempts by default); context cancellation stops retries
// immediately.
//
// The Completer interface is shared with the Gemini client so the analysis
// stage can switch providers through configuration.
package llm
