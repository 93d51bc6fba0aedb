package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"reelforge/internal/config"
)

// RetentionTarget is a glob of log files subject to age-based pruning.
// Paths listed in Keep survive regardless of age.
type RetentionTarget struct {
	Glob string
	Keep []string
}

// RetentionTargets covers daemon run logs and per-job logs under cfg's log
// directory, keeping current (the active daemon log).
func RetentionTargets(cfg *config.Config, current string) []RetentionTarget {
	if cfg == nil {
		return nil
	}
	return []RetentionTarget{
		{Glob: filepath.Join(cfg.Paths.LogDir, "reelforge-*.log"), Keep: []string{current}},
		{Glob: filepath.Join(cfg.JobLogDir(), "*.log")},
	}
}

// CleanupOldLogs deletes regular files matched by targets whose modification
// time is more than retentionDays old, returning how many went. Zero or
// negative retention disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range expiredLogs(targets, cutoff) {
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
	if removed > 0 {
		logger.Info("old logs pruned",
			String(FieldEventType, "log_retention"),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}

// expiredLogs expands every target glob and returns the sorted, de-duplicated
// absolute paths of regular files older than cutoff that no target keeps.
func expiredLogs(targets []RetentionTarget, cutoff time.Time) []string {
	var keep, out []string
	for _, t := range targets {
		for _, k := range t.Keep {
			if k = strings.TrimSpace(k); k != "" {
				keep = append(keep, absPath(k))
			}
		}
	}
	for _, t := range targets {
		if strings.TrimSpace(t.Glob) == "" {
			continue
		}
		matches, err := filepath.Glob(t.Glob)
		if err != nil {
			continue
		}
		for _, match := range matches {
			path := absPath(match)
			if slices.Contains(keep, path) || !olderThan(path, cutoff) {
				continue
			}
			out = append(out, path)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func olderThan(path string, cutoff time.Time) bool {
	info, err := os.Lstat(path)
	if err != nil || info.Mode().Type() != 0 {
		return false
	}
	return info.ModTime().Before(cutoff)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
