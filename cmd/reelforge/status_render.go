package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"reelforge/internal/api"
	"reelforge/internal/jobs"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	badge := "[" + style.label + "]"
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", badge)
	if colorize && style.color != "" {
		return style.color + line + ansiReset
	}
	return line
}

func statusKindColor(kind statusKind) string {
	return statusStyles[kind].color
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func pollStatusKind(status string) statusKind {
	switch status {
	case api.PollDone:
		return statusOK
	case api.PollFailed:
		return statusError
	default:
		return statusWarn
	}
}

func jobStatusKind(status string) statusKind {
	parsed, ok := jobs.ParseStatus(status)
	if !ok {
		return statusInfo
	}
	switch parsed {
	case jobs.StatusDone:
		return statusOK
	case jobs.StatusFailed:
		return statusError
	default:
		return statusWarn
	}
}

func dependencyKind(dep api.DependencyStatus) statusKind {
	switch {
	case dep.Available:
		return statusOK
	case dep.Optional:
		return statusWarn
	default:
		return statusError
	}
}
