package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"reelforge/internal/config"
)

// Options describes logger construction parameters.
type Options struct {
	Level            string
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	Development      bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	handler, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewHandler builds the slog.Handler behind New so callers can tee it into
// other loggers. OutputPaths receive every enabled record. ErrorOutputPaths
// receive warnings and errors only; a path listed in both is written once.
func NewHandler(opts Options) (slog.Handler, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "":
		format = "console"
	case "console", "json":
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	level := parseLevel(opts.Level)
	addSource := opts.Development || level <= slog.LevelDebug

	outputs := cleanPaths(opts.OutputPaths)
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errorOnly := slices.DeleteFunc(cleanPaths(opts.ErrorOutputPaths), func(p string) bool {
		return slices.Contains(outputs, p)
	})

	build := func(paths []string, floor slog.Level) (slog.Handler, error) {
		if len(paths) == 0 {
			return nil, nil
		}
		w, err := openWriters(paths)
		if err != nil {
			return nil, err
		}
		lv := new(slog.LevelVar)
		lv.Set(floor)
		if format == "json" {
			return newJSONHandler(w, lv, addSource)
		}
		return newConsoleHandler(w, lv, addSource, isTerminalOnly(paths)), nil
	}
	all, err := build(outputs, level)
	if err != nil {
		return nil, err
	}
	problems, err := build(errorOnly, max(level, slog.LevelWarn))
	if err != nil {
		return nil, err
	}
	return newFanoutHandler(all, problems), nil
}

// DaemonLogOptions tunes NewDaemonLogger.
type DaemonLogOptions struct {
	// Level overrides logging.level when set.
	Level       string
	Development bool
	// Stdout mirrors records to the process stdout.
	Stdout bool
	// Now stamps the run log name; defaults to time.Now.
	Now func() time.Time
}

// NewDaemonLogger opens a fresh run log reelforge-<utc timestamp>.log inside
// the configured log directory and points reelforge.log at it, so
// `reelforge logs` always follows the current run. It returns the run log path.
func NewDaemonLogger(cfg *config.Config, opts DaemonLogOptions) (*slog.Logger, string, error) {
	if cfg == nil || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return nil, "", fmt.Errorf("daemon logger: log directory is required")
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("ensure log directory: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	runLog := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reelforge-%s.log", now().UTC().Format("20060102T150405.000Z")))

	outputs := []string{runLog}
	if opts.Stdout {
		outputs = append(outputs, "stdout")
	}
	level := opts.Level
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := New(Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Development: opts.Development,
	})
	if err != nil {
		return nil, "", err
	}
	if err := pointCurrentLog(filepath.Join(cfg.Paths.LogDir, CurrentLogName), runLog); err != nil {
		logger.Warn("unable to update current log link", Error(err), String("path", runLog))
	}
	return logger, runLog, nil
}

// CurrentLogName is the link inside log_dir that tracks the active run log.
const CurrentLogName = "reelforge.log"

// pointCurrentLog replaces link with a symlink to target, falling back to a
// hard link on filesystems without symlinks.
func pointCurrentLog(link, target string) error {
	if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, link); err == nil {
		return nil
	}
	if err := os.Link(target, link); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// cleanPaths trims entries and drops blanks and duplicates.
func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// isTerminalOnly reports whether console colors are safe: the only sink is
// stdout and it is attached to a terminal.
func isTerminalOnly(paths []string) bool {
	return len(paths) == 1 && paths[0] == "stdout" && isatty.IsTerminal(os.Stdout.Fd())
}

func openWriters(paths []string) (io.Writer, error) {
	writers := make([]io.Writer, 0, len(paths))
	for _, path := range paths {
		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(path); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", path, err)
			}
			writers = append(writers, file)
		}
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
