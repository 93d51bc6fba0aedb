// Package script turns a one-line concept into a validated scene script using
// an OpenAI-compatible chat completion endpoint.
//
// The generator only drafts scripts; submitting the result as a render job is
// left to the caller so a human can review the scenes first.
package script
