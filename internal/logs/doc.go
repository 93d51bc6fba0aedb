// Package logs reads daemon and per-job log files for the CLI.
//
// Last returns the final lines of a file with bounded memory, and Follow
// streams lines appended after an offset until the context ends. A file that
// shrinks (rotation or truncation) is re-read from the start.
package logs
