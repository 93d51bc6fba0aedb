// Package apiclient is the HTTP client the CLI uses to talk to a running
// reelforge daemon.
//
// It mirrors the routes served by internal/daemon, decodes the shared DTOs
// from internal/api, and converts non-2xx replies into *Error values that
// carry the HTTP status and, for rejected submissions, the job id the
// daemon assigned. Connection failures are reported as ErrDaemonUnreachable
// so commands can suggest starting the daemon.
package apiclient
