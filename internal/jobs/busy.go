package jobs

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// busyDelays is the wait before each retry of a statement that hit a locked
// database. The busy_timeout pragma absorbs most contention; this covers the
// WAL checkpoint window where SQLite returns BUSY immediately.
var busyDelays = []time.Duration{
	10 * time.Millisecond,
	25 * time.Millisecond,
	60 * time.Millisecond,
	150 * time.Millisecond,
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// isBusy reports whether err carries a SQLITE_BUSY or SQLITE_LOCKED primary
// result code, including extended variants such as BUSY_SNAPSHOT.
func isBusy(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// withBusyRetry runs fn until it succeeds, fails with a non-busy error, or the
// delay schedule is exhausted.
func withBusyRetry[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx = ensureContext(ctx)
	for i := 0; ; i++ {
		out, err := fn(ctx)
		if err == nil || !isBusy(err) || i >= len(busyDelays) {
			return out, err
		}
		timer := time.NewTimer(busyDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return withBusyRetry(ctx, func(ctx context.Context) (sql.Result, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
}
