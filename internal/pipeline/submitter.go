package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"reelforge/internal/logging"
	"reelforge/internal/scene"
	"reelforge/internal/services"
)

// Submitter records jobs and schedules their runs on a bounded pool. A job
// submitted while every slot is busy waits for one to free up.
type Submitter struct {
	store   JobStore
	runner  Runner
	pool    *ants.Pool
	base    context.Context
	logger  *slog.Logger
	pending sync.WaitGroup
}

// NewSubmitter builds a submitter running at most maxConcurrent jobs. Runs
// inherit base; cancelling it interrupts in-flight jobs on shutdown.
func NewSubmitter(base context.Context, store JobStore, runner Runner, maxConcurrent int, logger *slog.Logger) (*Submitter, error) {
	if store == nil || runner == nil {
		return nil, errors.New("pipeline: submitter needs a job store and a runner")
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if base == nil {
		base = context.Background()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "submitter")
	pool, err := ants.NewPool(maxConcurrent,
		ants.WithLogger(poolLogger{logger: logger}),
		ants.WithPanicHandler(func(p any) {
			logger.Error("job task panicked outside the pipeline", logging.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create job pool: %w", err)
	}
	return &Submitter{store: store, runner: runner, pool: pool, base: base, logger: logger}, nil
}

// Submit validates script, creates its job, and schedules the run. The job id
// is returned as soon as the record exists; when all slots are busy the run
// is queued. A closed submitter rejects the script with services.ErrBusy
// before any job is created.
func (s *Submitter) Submit(ctx context.Context, script scene.Script) (string, error) {
	if err := scene.Validate(&script); err != nil {
		return "", err
	}
	if s.pool.IsClosed() {
		return "", services.Wrap(services.ErrBusy, "submit", "schedule", "daemon is shutting down", ants.ErrPoolClosed)
	}
	scriptJSON, err := scene.EncodeScenes(script.Scenes)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "ingress", "encode scenes", "", err)
	}
	id, err := s.store.Create(ctx, script.Title, scriptJSON)
	if err != nil {
		return "", err
	}
	logger := logging.WithContext(services.WithJobID(ctx, id), s.logger)

	title := script.Title
	scenes := script.Scenes
	runCtx := services.WithJobID(s.base, id)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		runCtx = services.WithRequestID(runCtx, rid)
	}
	logger.Info("job scheduled",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String("title", title),
		logging.Int("scenes", len(scenes)),
		logging.Int("running", s.pool.Running()),
		logging.Int("queued", s.pool.Waiting()),
	)
	s.pending.Go(func() {
		err := s.pool.Submit(func() {
			s.runner.Run(runCtx, id, title, scenes)
		})
		if err != nil {
			s.abandon(logger, id, err)
		}
	})
	return id, nil
}

// abandon marks a queued job failed when the pool closed before it ran.
func (s *Submitter) abandon(logger *slog.Logger, id string, cause error) {
	message := "job could not be scheduled"
	if errors.Is(cause, ants.ErrPoolClosed) {
		message = "daemon shut down before the job started"
	}
	wrapped := services.Wrap(services.ErrBusy, "submit", "schedule", message, cause)
	writeCtx, cancel := terminalContext(context.Background())
	defer cancel()
	if err := s.store.MarkFailed(writeCtx, id, services.Kind(wrapped), wrapped.Error()); err != nil {
		logging.ErrorWithContext(logger, "failed to record scheduling failure", "job_terminal_write_failed", logging.Error(err))
	}
	logging.WarnWithContext(logger, "queued job dropped", "job_rejected",
		logging.Error(wrapped),
		logging.String(logging.FieldErrorHint, "resubmit the script once the daemon is running"),
		logging.String(logging.FieldImpact, "job marked failed without running"),
	)
}

// Running reports how many jobs are executing.
func (s *Submitter) Running() int {
	return s.pool.Running()
}

// Capacity reports the concurrent job limit.
func (s *Submitter) Capacity() int {
	return s.pool.Cap()
}

// Queued reports how many jobs are waiting for a free slot.
func (s *Submitter) Queued() int {
	return s.pool.Waiting()
}

// Close stops accepting work and waits up to timeout for running jobs. Jobs
// still queued are marked failed.
func (s *Submitter) Close(timeout time.Duration) error {
	var err error
	if timeout <= 0 {
		s.pool.Release()
	} else {
		err = s.pool.ReleaseTimeout(timeout)
	}
	s.pending.Wait()
	return err
}

type poolLogger struct {
	logger *slog.Logger
}

func (l poolLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
