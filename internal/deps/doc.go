// Package deps probes the host for the tools and directories the daemon
// needs. The ffmpeg probe goes beyond PATH lookup: it runs the binary and
// checks its encoder list.
package deps
