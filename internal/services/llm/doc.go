// Package llm talks to an OpenAI-compatible chat completion endpoint
// (OpenRouter by default) in JSON mode. The script generator uses it to draft
// scene lists from a one-line concept and preflight uses Ping to validate the
// key.
//
// DecodeJSON accepts model output with fences or prose around the JSON body.
// Transport retries follow httpretry; refusals fail immediately.
package llm
