// Package api defines wire-format types and converters for the HTTP API. It
// translates internal job models into transport-friendly DTOs that the CLI
// and other pollers can render without coupling to internal types.
//
// # Key Types
//
// SubmitRequest/SubmitResponse: the script a client submits and the job id it
// gets back immediately.
//
// StatusResponse: the poll view. It only ever reports "rendering", "done" or
// "failed" plus the video URL once done; provider errors stay in the logs.
//
// Job: the operator view used by job listings, with error kind, archive URL,
// heartbeat and log path.
//
// HealthResponse: daemon runtime information including dependency and
// preflight results.
//
// # Converters
//
// FromJob, FromJobs and StatusFromJob map jobs.Job records. PollStatus maps
// the stored lifecycle state to the client-visible one.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Errors are always {"error": "..."}.
package api
