package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/deps"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/preflight"
	"reelforge/internal/scene"
)

// Submitter schedules jobs for background execution.
type Submitter interface {
	Submit(ctx context.Context, script scene.Script) (string, error)
	Running() int
	Capacity() int
}

// ScriptGenerator drafts a script from a short concept.
type ScriptGenerator interface {
	Generate(ctx context.Context, concept string) (scene.Script, error)
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithScriptGenerator enables POST /api/script.
func WithScriptGenerator(gen ScriptGenerator) Option {
	return func(d *Daemon) {
		d.scripts = gen
	}
}

// WithMonitor runs the liveness monitor while the daemon is started.
func WithMonitor(m *pipeline.Monitor) Option {
	return func(d *Daemon) {
		d.monitor = m
	}
}

// Daemon owns the single-instance lock, the API server and the liveness monitor.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *jobs.Store
	submitter Submitter
	scripts   ScriptGenerator
	monitor   *pipeline.Monitor

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, submitter Submitter, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || submitter == nil {
		return nil, errors.New("daemon requires config, job store, and submitter")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "reelforge.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		submitter: submitter,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.api = newAPIServer(cfg.Paths.APIBind, cfg.Paths.APIToken, d, logger)
	return d, nil
}

// Start acquires the daemon lock, reports orphaned jobs, and begins serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelforge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.done = make(chan struct{})

	if d.monitor != nil {
		if _, err := d.monitor.ReportOrphans(runCtx); err != nil {
			d.logger.Warn("orphaned job scan failed", logging.Error(err))
		}
	}
	go func() {
		defer close(d.done)
		if d.monitor != nil {
			d.monitor.Run(runCtx)
		}
	}()

	d.running.Store(true)
	d.logger.Info("reelforge daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("api_address", d.api.address()),
	)
	return nil
}

// Stop stops the API server and monitor and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reelforge daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon. The job store is owned by the caller.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Address returns the bound API address once started.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Health reports dependency availability, directory access and job counts.
// Deep health additionally probes remote providers.
func (d *Daemon) Health(ctx context.Context, deep bool) api.HealthResponse {
	dependencies := preflight.CheckSystemDeps(ctx, d.cfg)
	var checks []preflight.Result
	if deep {
		checks = preflight.RunAll(ctx, d.cfg)
	} else {
		checks = preflight.RunLocal(ctx, d.cfg)
	}

	resp := api.HealthResponse{
		Healthy:        healthy(dependencies, checks),
		PID:            os.Getpid(),
		RenderBackend:  d.cfg.Render.Backend,
		StorageBackend: d.cfg.Storage.Backend,
		DatabasePath:   d.store.Path(),
		LockFilePath:   d.lockPath,
		RunningJobs:    d.submitter.Running(),
		JobCapacity:    d.submitter.Capacity(),
		Dependencies:   api.FromDependencies(dependencies),
		Checks:         api.FromPreflight(checks),
	}
	counts, err := d.store.Counts(ctx)
	if err != nil {
		d.logger.Warn("job counts unavailable", logging.Error(err))
		resp.Healthy = false
	}
	resp.Counts = api.CountsByStatus(counts)
	return resp
}

func healthy(dependencies []deps.Status, checks []preflight.Result) bool {
	for _, dep := range dependencies {
		if !dep.Available && !dep.Optional {
			return false
		}
	}
	return len(preflight.Failed(checks)) == 0
}
