package pipeline

import (
	"context"
	"log/slog"
	"time"

	"reelforge/internal/jobs"
	"reelforge/internal/logging"
)

// Monitor reports processing jobs that stopped sending heartbeats.
type Monitor struct {
	store      JobStore
	logger     *slog.Logger
	staleAfter time.Duration
	interval   time.Duration
	now        func() time.Time
}

// NewMonitor creates a monitor checking every interval for jobs silent longer
// than staleAfter.
func NewMonitor(store JobStore, logger *slog.Logger, staleAfter, interval time.Duration) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Monitor{
		store:      store,
		logger:     logging.NewComponentLogger(logger, "liveness"),
		staleAfter: staleAfter,
		interval:   interval,
		now:        time.Now,
	}
}

// Check lists stale jobs and logs one warning per job.
func (m *Monitor) Check(ctx context.Context) ([]*jobs.Job, error) {
	if m.staleAfter <= 0 {
		return nil, nil
	}
	return m.report(ctx, m.now().Add(-m.staleAfter), "job_stale", "job heartbeat is stale")
}

// ReportOrphans logs every job still processing at startup. No task of the
// current process can own them yet, so they were interrupted by a previous
// shutdown or crash.
func (m *Monitor) ReportOrphans(ctx context.Context) ([]*jobs.Job, error) {
	return m.report(ctx, m.now().Add(time.Second), "job_orphaned", "job left processing by a previous daemon")
}

func (m *Monitor) report(ctx context.Context, cutoff time.Time, eventType, msg string) ([]*jobs.Job, error) {
	stale, err := m.store.StaleProcessing(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	now := m.now()
	for _, job := range stale {
		logging.WarnWithContext(m.logger, msg, eventType,
			logging.String(logging.FieldJobID, job.ID),
			logging.String("title", job.Title),
			logging.Duration("silent_for", now.Sub(job.LastSeen()).Round(time.Second)),
			logging.String(logging.FieldErrorHint, "inspect the job log; resubmit the script if the job cannot finish"),
			logging.String(logging.FieldImpact, "job will stay in processing until resubmitted"),
		)
	}
	return stale, nil
}

// Run checks periodically until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m.interval <= 0 || m.staleAfter <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("stale job check failed", logging.Error(err))
			}
		}
	}
}
