package pipeline

import (
	"context"
	"time"

	"reelforge/internal/jobs"
	"reelforge/internal/scene"
)

// JobStore is the slice of jobs.Store the pipeline writes through.
type JobStore interface {
	Create(ctx context.Context, title, scriptJSON string) (string, error)
	MarkDone(ctx context.Context, id, videoURL string) error
	MarkFailed(ctx context.Context, id, kind, message string) error
	UpdateHeartbeat(ctx context.Context, id string) error
	SetArchiveURL(ctx context.Context, id, archiveURL string) error
	SetLogPath(ctx context.Context, id, path string) error
	StaleProcessing(ctx context.Context, cutoff time.Time) ([]*jobs.Job, error)
}

// SceneFetcher turns one scene into uploaded media.
type SceneFetcher interface {
	Fetch(ctx context.Context, sc scene.Scene) (scene.Asset, error)
}

// Archiver produces an archival encode of a finished video.
type Archiver interface {
	Archive(ctx context.Context, video []byte) ([]byte, error)
}

// Runner executes one job to a terminal state.
type Runner interface {
	Run(ctx context.Context, jobID, title string, scenes []scene.Scene)
}

var _ JobStore = (*jobs.Store)(nil)
