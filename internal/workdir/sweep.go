// Package workdir reclaims scratch directories that compositors and the
// archiver leave under paths.work_dir when a process dies mid-job.
package workdir

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/logging"
)

// Scratch is one per-run directory found under the work dir.
type Scratch struct {
	Path string
	// JobID is parsed from render-<job>-<suffix> names; empty for archive
	// directories and renders started without a job.
	JobID string
	Age   time.Duration
}

// Options tunes a sweep.
type Options struct {
	MaxAge time.Duration
	// Keep protects a candidate from removal, for example one whose job is
	// still processing.
	Keep func(Scratch) bool
}

// SweepResult lists what a sweep removed and what it could not.
type SweepResult struct {
	Removed []string
	Failed  map[string]error
}

// Scan lists scratch directories in dir. A missing dir yields nothing.
func Scan(dir string, now time.Time) ([]Scratch, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Scratch
	for _, entry := range entries {
		jobID, ok := parseScratchName(entry.Name())
		if !ok || !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Scratch{
			Path:  filepath.Join(dir, entry.Name()),
			JobID: jobID,
			Age:   now.Sub(info.ModTime()),
		})
	}
	return out, nil
}

// parseScratchName recognizes render-<job>-<rand>, render-<rand> and
// archive-<rand>.
func parseScratchName(name string) (jobID string, ok bool) {
	if rest, found := strings.CutPrefix(name, "archive-"); found {
		return "", rest != ""
	}
	rest, found := strings.CutPrefix(name, "render-")
	if !found || rest == "" {
		return "", false
	}
	if i := strings.LastIndexByte(rest, '-'); i > 0 {
		return rest[:i], true
	}
	return "", true
}

// Sweep removes scratch directories under dir older than opts.MaxAge that
// opts.Keep does not protect. Unrelated entries are left alone.
func Sweep(ctx context.Context, dir string, opts Options, logger *slog.Logger) SweepResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	result := SweepResult{Failed: map[string]error{}}
	candidates, err := Scan(dir, time.Now())
	if err != nil {
		result.Failed[dir] = err
		return result
	}
	for _, sc := range candidates {
		if ctx.Err() != nil {
			break
		}
		if sc.Age <= opts.MaxAge || (opts.Keep != nil && opts.Keep(sc)) {
			continue
		}
		if err := os.RemoveAll(sc.Path); err != nil {
			result.Failed[sc.Path] = err
			logging.WarnWithContext(logger, "failed to remove scratch directory", "workdir_sweep_failed",
				logging.String("path", sc.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, sc.Path)
		logger.Debug("removed scratch directory",
			logging.String("path", sc.Path),
			logging.String(logging.FieldJobID, sc.JobID),
			logging.Duration("age", sc.Age),
			logging.String(logging.FieldEventType, "workdir_sweep"),
		)
	}
	if n := len(result.Removed); n > 0 {
		logger.Info("reclaimed scratch directories",
			logging.Int("removed", n),
			logging.String(logging.FieldEventType, "workdir_sweep_summary"),
		)
	}
	return result
}

// RunPeriodic sweeps every interval until ctx ends.
func RunPeriodic(ctx context.Context, dir string, interval time.Duration, opts Options, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Sweep(ctx, dir, opts, logger)
		}
	}
}
