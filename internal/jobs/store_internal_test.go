package jobs

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStaleProcessingUsesHeartbeatOrCreation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base }
	quiet, err := store.Create(ctx, "quiet", "[]")
	if err != nil {
		t.Fatalf("Create quiet: %v", err)
	}
	beating, err := store.Create(ctx, "beating", "[]")
	if err != nil {
		t.Fatalf("Create beating: %v", err)
	}
	finished, err := store.Create(ctx, "finished", "[]")
	if err != nil {
		t.Fatalf("Create finished: %v", err)
	}

	store.now = func() time.Time { return base.Add(50 * time.Minute) }
	if err := store.UpdateHeartbeat(ctx, beating); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}
	if err := store.MarkDone(ctx, finished, "u"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	stale, err := store.StaleProcessing(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("StaleProcessing: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != quiet {
		t.Fatalf("expected only the quiet job to be stale, got %v", stale)
	}

	job, err := store.Get(ctx, beating)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.LastHeartbeat == nil || !job.LastSeen().Equal(base.Add(50*time.Minute)) {
		t.Fatalf("unexpected last seen %v", job.LastSeen())
	}
}

func TestHeartbeatIgnoresTerminalJobs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id, err := store.Create(ctx, "done", "[]")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.MarkDone(ctx, id, "u"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := store.UpdateHeartbeat(ctx, id); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}
	job, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.LastHeartbeat != nil {
		t.Fatalf("terminal job should not record heartbeat, got %v", job.LastHeartbeat)
	}
}

func TestSchemaMismatchIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := OpenPath(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenUpgradesOlderSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) < 2 || migrations[0].version != 1 {
		t.Fatalf("unexpected migration set: %+v", migrations)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	for _, stmt := range []string{
		migrations[0].sql,
		"CREATE TABLE schema_version (version INTEGER NOT NULL)",
		"INSERT INTO schema_version (version) VALUES (1)",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed v1: %v", err)
		}
	}
	_ = db.Close()

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	version, err := store.schemaVersion(context.Background())
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if want := migrations[len(migrations)-1].version; version != want {
		t.Fatalf("expected version %d, got %d", want, version)
	}
	id, err := store.Create(context.Background(), "upgraded", "[]")
	if err != nil {
		t.Fatalf("Create after upgrade: %v", err)
	}
	if err := store.UpdateHeartbeat(context.Background(), id); err != nil {
		t.Fatalf("Heartbeat after upgrade: %v", err)
	}
}

func TestTimestampsRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)
	parsed, err := parseTimeString(formatTime(ts))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(ts) {
		t.Fatalf("expected %v, got %v", ts, parsed)
	}
}

func TestBusyRetryStopsOnOrdinaryErrors(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	_, err := withBusyRetry(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected single failing call, got calls=%d err=%v", calls, err)
	}
	if isBusy(boom) {
		t.Fatal("plain error must not be treated as busy")
	}
}

func TestDSNCarriesPragmas(t *testing.T) {
	dsn := sqliteDSN("/tmp/jobs.db")
	for _, want := range []string{"file:/tmp/jobs.db?", "journal_mode%28WAL%29", "busy_timeout%285000%29"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestStoredTimeScan(t *testing.T) {
	var st storedTime
	if err := st.Scan("2026-01-02T03:04:05.000000000Z"); err != nil || !st.valid {
		t.Fatalf("scan string: %v valid=%v", err, st.valid)
	}
	if err := st.Scan(nil); err != nil || st.valid {
		t.Fatalf("scan nil: %v valid=%v", err, st.valid)
	}
	if err := st.Scan([]byte("garbage")); err != nil || st.valid {
		t.Fatalf("scan garbage: %v valid=%v", err, st.valid)
	}
	if err := st.Scan(42); err == nil {
		t.Fatal("integers are not timestamps")
	}
}

func TestMakePlaceholders(t *testing.T) {
	cases := map[int]string{0: "", 1: "?", 3: "?,?,?"}
	for n, want := range cases {
		if got := makePlaceholders(n); got != want {
			t.Fatalf("makePlaceholders(%d) = %q, want %q", n, got, want)
		}
	}
}
