package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"reelforge/internal/api"
	"reelforge/internal/apiclient"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/preflight"
)

// ErrDaemonNotRunning indicates no daemon answered on the API address.
var ErrDaemonNotRunning = errors.New("daemon not running")

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	Signalled  bool
	ForcedKill bool
	PID        int
}

// Controller manages the daemon that cfg describes through its API client.
type Controller struct {
	client *apiclient.Client
	cfg    *config.Config
}

func NewController(client *apiclient.Client, cfg *config.Config) *Controller {
	return &Controller{client: client, cfg: cfg}
}

// probe asks the daemon for shallow health. running is false only when
// nothing answers; other failures are returned.
func (c *Controller) probe(ctx context.Context) (health api.HealthResponse, running bool, err error) {
	health, err = c.client.Health(ctx, false)
	if errors.Is(err, apiclient.ErrDaemonUnreachable) {
		return api.HealthResponse{}, false, nil
	}
	if err != nil {
		return api.HealthResponse{}, false, err
	}
	return health, true, nil
}

// Start launches executable unless a daemon already answers, then waits up
// to wait for the new daemon to report healthy.
func (c *Controller) Start(ctx context.Context, executable string, opts LaunchOptions, wait time.Duration) (StartResult, error) {
	health, running, err := c.probe(ctx)
	if err != nil {
		return StartResult{}, err
	}
	if running {
		return StartResult{State: StartStateAlreadyRunning, PID: health.PID}, nil
	}
	if err := Launch(executable, opts); err != nil {
		return StartResult{}, err
	}
	var lastErr error
	healthy := pollUntil(ctx, wait, func() bool {
		health, lastErr = c.client.Health(ctx, false)
		return lastErr == nil
	})
	if !healthy {
		if lastErr == nil {
			lastErr = ctx.Err()
		}
		return StartResult{}, fmt.Errorf("daemon failed to start within %s: %w", wait, lastErr)
	}
	return StartResult{State: StartStateStarted, Launched: true, PID: health.PID}, nil
}

// Stop sends SIGTERM to the daemon and SIGKILLs it when it outlives grace.
// The pid comes from health, falling back to the pid file so a wedged
// daemon whose API no longer answers can still be stopped.
func (c *Controller) Stop(ctx context.Context, grace time.Duration) (StopResult, error) {
	health, running, err := c.probe(ctx)
	if err != nil {
		return StopResult{}, err
	}
	pidFile := PIDFileFor(c.cfg)
	pid := health.PID
	if pid <= 0 {
		if recorded, readErr := pidFile.Read(); readErr == nil {
			pid = recorded
		}
	}
	switch {
	case !running && !ProcessAlive(pid):
		return StopResult{}, ErrDaemonNotRunning
	case pid <= 0:
		return StopResult{}, fmt.Errorf("daemon answers at %s but no pid is known", c.client.BaseURL())
	}

	result := StopResult{PID: pid}
	if err := signalProcess(pid, unix.SIGTERM); err != nil {
		return result, err
	}
	result.Signalled = true
	if pollUntil(ctx, grace, func() bool { return !ProcessAlive(pid) }) {
		return result, nil
	}

	if err := signalProcess(pid, unix.SIGKILL); err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	result.ForcedKill = true
	// A killed daemon cannot clean up after itself.
	_ = pidFile.Remove()
	_ = os.Remove(LockPath(c.cfg))
	return result, nil
}

// Snapshot combines live daemon health with offline fallbacks.
type Snapshot struct {
	Running bool
	Health  api.HealthResponse
}

// Snapshot asks the daemon for health. When no daemon answers it reads job
// counts straight from the database and probes dependencies locally.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	if c.cfg == nil {
		return Snapshot{}, errors.New("configuration not available")
	}
	health, running, err := c.probe(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if running {
		return Snapshot{Running: true, Health: health}, nil
	}
	return Snapshot{Health: c.offlineHealth(ctx)}, nil
}

func (c *Controller) offlineHealth(ctx context.Context) api.HealthResponse {
	cfg := c.cfg
	health := api.HealthResponse{
		RenderBackend:  cfg.Render.Backend,
		StorageBackend: cfg.Storage.Backend,
		DatabasePath:   cfg.DatabasePath(),
		LockFilePath:   LockPath(cfg),
		JobCapacity:    cfg.Pipeline.MaxConcurrentJobs,
		Dependencies:   api.FromDependencies(preflight.CheckSystemDeps(ctx, cfg)),
	}
	// Opening the store would create an empty database.
	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		return health
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return health
	}
	defer store.Close()
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if counts, err := store.Counts(queryCtx); err == nil {
		health.Counts = api.CountsByStatus(counts)
	}
	return health
}
