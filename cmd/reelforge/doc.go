// Package main hosts the reelforge CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon in the foreground (serve), manages
// a detached daemon (start, stop), and translates job commands into calls
// against the daemon HTTP API. Configuration resolution and daemon address
// discovery live in commandContext so subcommands only deal with output.
package main
