package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"reelforge/internal/config"
)

// JobLogs manages dedicated log files for individual render jobs.
type JobLogs struct {
	baseDir string
	level   string
	format  string
	now     func() time.Time
}

// JobLog is an open per-job log file.
type JobLog struct {
	Path    string
	Handler slog.Handler
	file    *os.File
}

// NewJobLogs creates a job log factory rooted at the configured job log directory.
func NewJobLogs(cfg *config.Config) *JobLogs {
	logs := &JobLogs{level: "info", format: "json", now: time.Now}
	if cfg == nil {
		return logs
	}
	logs.baseDir = cfg.JobLogDir()
	if strings.TrimSpace(cfg.Logging.Level) != "" {
		logs.level = cfg.Logging.Level
	}
	return logs
}

// Dir returns the directory holding job logs.
func (j *JobLogs) Dir() string {
	if j == nil {
		return ""
	}
	return j.baseDir
}

// Open creates the log file for a job and a JSON handler writing to it.
func (j *JobLogs) Open(jobID, title string) (*JobLog, error) {
	if j == nil || strings.TrimSpace(j.baseDir) == "" {
		return nil, errors.New("job log directory not configured")
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New("job id is empty")
	}
	if err := os.MkdirAll(j.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure job log directory: %w", err)
	}
	path := filepath.Join(j.baseDir, j.filename(jobID, title))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open job log %s: %w", path, err)
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(j.level))
	var handler slog.Handler
	if j.format == "console" {
		handler = newConsoleHandler(file, levelVar, false, false)
	} else {
		handler, _ = newJSONHandler(file, levelVar, false)
	}
	return &JobLog{Path: path, Handler: handler, file: file}, nil
}

// Close flushes and closes the underlying file.
func (l *JobLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (j *JobLogs) filename(jobID, title string) string {
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	timestamp := now().UTC().Format("20060102T150405")
	slug := sanitizeSlug(title)
	if slug == "" {
		slug = "untitled"
	}
	if len(slug) > 48 {
		slug = strings.Trim(slug[:48], "-")
	}
	return fmt.Sprintf("%s-%s-%s.log", timestamp, slug, jobID)
}

func sanitizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(value))
	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			builder.WriteRune(unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}
