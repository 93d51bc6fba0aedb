package daemonrun

import (
	"context"
	"testing"

	"reelforge/internal/testsupport"
	"reelforge/internal/workdir"
)

func TestProcessingScratchKeepsRunningJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	running := testsupport.MustCreateJob(t, store, "running")
	finished := testsupport.MustCreateJob(t, store, "finished")
	if err := store.MarkDone(ctx, finished, "file:///out.mp4"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	keep := processingScratch(ctx, store)
	cases := []struct {
		jobID string
		want  bool
	}{
		{running, true},
		{finished, false},
		{"no-such-job", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := keep(workdir.Scratch{JobID: tc.jobID}); got != tc.want {
			t.Fatalf("keep(%q) = %v, want %v", tc.jobID, got, tc.want)
		}
	}
}
