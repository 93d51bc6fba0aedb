// Package notifications pushes job outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// pipeline code can call it unconditionally. Delivery errors are returned to
// the caller, which logs them; they never influence job state.
package notifications
