package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reelforge/internal/logging"
)

// heartbeat keeps a processing job's last_heartbeat fresh so the liveness
// monitor does not report it as stale.
type heartbeat struct {
	store    JobStore
	logger   *slog.Logger
	jobID    string
	failures int
}

// beat writes one heartbeat. Only the first failure of a streak is a warning;
// a later success logs the recovery.
func (h *heartbeat) beat(ctx context.Context) {
	err := h.store.UpdateHeartbeat(ctx, h.jobID)
	switch {
	case err == nil:
		if h.failures > 0 {
			h.logger.Info("heartbeat recovered",
				logging.Int("failed_beats", h.failures),
				logging.String(logging.FieldEventType, "heartbeat_recovered"))
		}
		h.failures = 0
	case errors.Is(err, context.Canceled):
	default:
		h.failures++
		if h.failures == 1 {
			logging.WarnWithContext(h.logger, "heartbeat update failed", "heartbeat_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "job may be reported stale while rendering continues"))
		} else {
			h.logger.Debug("heartbeat still failing", logging.Int("failed_beats", h.failures), logging.Error(err))
		}
	}
}

// startHeartbeat beats immediately and then every interval until the
// returned stop function is called. stop waits for the goroutine to exit.
func startHeartbeat(ctx context.Context, store JobStore, logger *slog.Logger, jobID string, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &heartbeat{
		store:  store,
		logger: logging.WithContext(ctx, logger.With(logging.String(logging.FieldComponent, "pipeline-heartbeat"))),
		jobID:  jobID,
	}
	var wg sync.WaitGroup
	wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			h.beat(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
	return func() {
		cancel()
		wg.Wait()
	}
}
