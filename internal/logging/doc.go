// Package logging assembles structured slog loggers and formatting helpers used
// across reelforge.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with job IDs, stages, scene positions, and correlation IDs.
// Per-job log files are opened through JobLogs and teed alongside the daemon
// logger so a single render can be inspected in isolation.
package logging
