package testsupport

import (
	"context"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustCreateJob inserts a processing job and returns its id.
func MustCreateJob(t testing.TB, store *jobs.Store, title string) string {
	t.Helper()

	id, err := store.Create(context.Background(), title, `[]`)
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return id
}

// MustGetJob fetches a job or fails the test.
func MustGetJob(t testing.TB, store *jobs.Store, id string) *jobs.Job {
	t.Helper()

	job, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get job %s: %v", id, err)
	}
	return job
}
