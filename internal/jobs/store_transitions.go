package jobs

import (
	"context"
	"errors"
	"fmt"

	"reelforge/internal/services"
)

// ErrNotProcessing indicates a terminal write against a job that already left
// the processing state.
var ErrNotProcessing = errors.New("job is not processing")

// MarkDone moves a processing job to done and records its video URL.
func (s *Store) MarkDone(ctx context.Context, id, videoURL string) error {
	return s.transition(ctx, "mark done", id,
		`UPDATE jobs SET status = ?, video_url = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusDone, videoURL, s.timestamp(), id, StatusProcessing,
	)
}

// MarkFailed moves a processing job to failed. kind and message are operator
// diagnostics and are never shown to polling clients.
func (s *Store) MarkFailed(ctx context.Context, id, kind, message string) error {
	return s.transition(ctx, "mark failed", id,
		`UPDATE jobs SET status = ?, error_kind = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed, nullableString(kind), nullableString(message), s.timestamp(), id, StatusProcessing,
	)
}

// UpdateHeartbeat records liveness for a processing job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	ts := s.timestamp()
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		ts, ts, id, StatusProcessing,
	); err != nil {
		return services.Wrap(services.ErrPersistence, component, "heartbeat", "update", err)
	}
	return nil
}

// SetArchiveURL records the archival copy location of a finished job.
func (s *Store) SetArchiveURL(ctx context.Context, id, archiveURL string) error {
	return s.annotate(ctx, "set archive url", id,
		`UPDATE jobs SET archive_url = ?, updated_at = ? WHERE id = ?`,
		nullableString(archiveURL), s.timestamp(), id,
	)
}

// SetLogPath records where the job's dedicated log file lives.
func (s *Store) SetLogPath(ctx context.Context, id, path string) error {
	return s.annotate(ctx, "set log path", id,
		`UPDATE jobs SET log_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(path), s.timestamp(), id,
	)
}

func (s *Store) transition(ctx context.Context, operation, id, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, operation, "update", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, operation, "rows affected", err)
	}
	if affected == 1 {
		return nil
	}
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s: job %s is %s", ErrNotProcessing, operation, id, job.Status)
}

func (s *Store) annotate(ctx context.Context, operation, id, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, operation, "update", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, component, operation, fmt.Sprintf("job %s", id), nil)
	}
	return nil
}
