package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/services"
)

const component = "jobs"

// Create inserts a job in processing state and returns its identifier.
func (s *Store) Create(ctx context.Context, title, scriptJSON string) (string, error) {
	id := uuid.NewString()
	timestamp := s.timestamp()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, title, script_json, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		strings.TrimSpace(title),
		scriptJSON,
		StatusProcessing,
		timestamp,
		timestamp,
	); err != nil {
		return "", services.Wrap(services.ErrPersistence, component, "create", "insert job", err)
	}
	return id, nil
}

// Get fetches a job by identifier. Unknown identifiers yield services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	job, err := withBusyRetry(ctx, func(ctx context.Context) (*Job, error) {
		return scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, component, "get", fmt.Sprintf("job %s", id), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "get", "read job", err)
	}
	return job, nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), newest first. A limit <= 0 returns every match.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryJobs(ctx, "list", query, args...)
}

// StaleProcessing lists processing jobs whose last liveness signal (heartbeat,
// or creation when no heartbeat was written) is older than cutoff.
func (s *Store) StaleProcessing(ctx context.Context, cutoff time.Time) ([]*Job, error) {
	return s.queryJobs(ctx, "stale",
		`SELECT `+jobColumns+` FROM jobs
         WHERE status = ? AND COALESCE(last_heartbeat, created_at) < ?
         ORDER BY created_at`,
		StatusProcessing,
		formatTime(cutoff),
	)
}

// Counts returns the number of jobs per status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	counts, err := withBusyRetry(ctx, func(ctx context.Context) (map[Status]int, error) {
		return collectRows(ctx, s.db, `SELECT status, COUNT(1) FROM jobs GROUP BY status`, nil,
			make(map[Status]int),
			func(rows *sql.Rows, acc map[Status]int) (map[Status]int, error) {
				var (
					status string
					count  int
				)
				if err := rows.Scan(&status, &count); err != nil {
					return acc, err
				}
				acc[Status(status)] = count
				return acc, nil
			})
	})
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "counts", "query", err)
	}
	return counts, nil
}

func (s *Store) queryJobs(ctx context.Context, operation, query string, args ...any) ([]*Job, error) {
	jobs, err := withBusyRetry(ctx, func(ctx context.Context) ([]*Job, error) {
		return collectRows(ctx, s.db, query, args, []*Job(nil),
			func(rows *sql.Rows, acc []*Job) ([]*Job, error) {
				job, err := scanJob(rows)
				if err != nil {
					return acc, err
				}
				return append(acc, job), nil
			})
	})
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, operation, "query", err)
	}
	return jobs, nil
}

// collectRows folds every row of query into acc.
func collectRows[A any](ctx context.Context, db *sql.DB, query string, args []any, acc A, step func(*sql.Rows, A) (A, error)) (A, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return acc, err
	}
	defer rows.Close()
	for rows.Next() {
		if acc, err = step(rows, acc); err != nil {
			return acc, err
		}
	}
	return acc, rows.Err()
}
