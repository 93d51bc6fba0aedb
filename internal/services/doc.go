// Package services defines shared utilities consumed by the render pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, scene positions, and
//     correlation identifiers for logging.
//   - The failure markers (asset generation, upload, composition, persistence)
//     plus the Wrap helper and Kind classifier that keep error reporting
//     uniform from generator clients up to the job store.
//
// Subpackages hold the thin HTTP clients for hosted providers.
package services
