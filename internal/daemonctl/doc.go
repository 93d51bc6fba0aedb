// Package daemonctl starts, stops, and inspects a detached reelforge daemon
// on behalf of CLI commands.
package daemonctl
