// Package daemon coordinates the long-running reelforge process.
//
// It wires configuration, the job store, the job submitter and the liveness
// monitor into a single lifecycle with flock-based locking to prevent multiple
// instances sharing one job database. The daemon serves the HTTP API used by
// the CLI and other pollers, and reports dependency health.
//
// Keep orchestration logic here: pipeline steps live in their own packages
// while the daemon focuses on startup, shutdown, and request handling.
package daemon
