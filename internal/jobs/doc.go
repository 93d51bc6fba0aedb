// Package jobs persists render jobs in SQLite.
//
// A job is created in the processing state and moves at most once more, to
// done (with a video URL) or failed. Terminal writes are conditional updates
// so a second transition is rejected with ErrNotProcessing instead of
// overwriting the first. Failures talking to the database carry
// services.ErrPersistence; unknown identifiers carry services.ErrNotFound.
//
// The schema is embedded and versioned through a schema_version table. A
// mismatched version fails Open with ErrSchemaMismatch rather than migrating.
package jobs
