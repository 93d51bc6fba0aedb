package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/daemon"
	"reelforge/internal/daemonctl"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/preflight"
	"reelforge/internal/services"
	"reelforge/internal/workdir"
)

const (
	// shutdownGrace bounds how long running jobs get to record an outcome.
	shutdownGrace = 30 * time.Second
	sweepInterval = time.Hour
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the reelforge daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.ValidateProviders(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, logPath, err := logging.NewDaemonLogger(cfg, logging.DaemonLogOptions{
		Level:       opts.LogLevel,
		Development: opts.Development,
		Stdout:      true,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTargets(cfg, logPath)...)
	logDependencySnapshot(signalCtx, logger, cfg)

	pidFile := daemonctl.PIDFileFor(cfg)
	if err := pidFile.Write(os.Getpid()); err != nil {
		return err
	}
	defer func() { _ = pidFile.Remove() }()

	// Jobs inherit signalCtx so a shutdown interrupts them; their terminal
	// writes are detached and still land.
	comps, err := build(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("daemon wiring failed", logging.Error(err))
		return err
	}
	defer comps.close(logger)

	d, err := daemon.New(cfg, comps.store, comps.submitter, logger,
		daemon.WithMonitor(comps.monitor),
		daemon.WithScriptGenerator(comps.scripts),
	)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that no other daemon holds the lock and the API port is free"),
		)
		_ = comps.submitter.Close(0)
		return err
	}
	if !cfg.Render.KeepWorkFiles {
		sweep := workdir.Options{MaxAge: time.Duration(cfg.Pipeline.StaleAfter) * time.Second}
		workdir.Sweep(signalCtx, cfg.Paths.WorkDir, sweep, logger)
		sweep.Keep = processingScratch(signalCtx, comps.store)
		go workdir.RunPeriodic(signalCtx, cfg.Paths.WorkDir, sweepInterval, sweep, logger)
	}

	<-signalCtx.Done()
	logger.Info("reelforge daemon shutting down",
		logging.Int("running_jobs", comps.submitter.Running()),
		logging.Int("queued_jobs", comps.submitter.Queued()),
	)
	d.Stop()
	if err := comps.submitter.Close(shutdownGrace); err != nil {
		logger.Warn("jobs still running at shutdown", logging.Error(err))
	}
	return nil
}

// processingScratch keeps scratch directories whose job is still
// processing in this daemon. Lookup failures keep the directory.
func processingScratch(ctx context.Context, store *jobs.Store) func(workdir.Scratch) bool {
	return func(sc workdir.Scratch) bool {
		if sc.JobID == "" {
			return false
		}
		job, err := store.Get(ctx, sc.JobID)
		if errors.Is(err, services.ErrNotFound) {
			return false
		}
		return err != nil || job.Status == jobs.StatusProcessing
	}
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("render_backend", cfg.Render.Backend),
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.Bool("llm_key_present", cfg.GetLLM().APIKey != ""),
		logging.Bool("ntfy_enabled", cfg.Notifications.NtfyTopic != ""),
		logging.Bool("archive_av1", cfg.Render.ArchiveAV1),
	}
	for _, dep := range preflight.CheckSystemDeps(ctx, cfg) {
		attrs = append(attrs,
			logging.Bool(dep.Name+"_available", dep.Available),
			logging.String(dep.Name+"_command", dep.Command),
		)
		if !dep.Available && !dep.Optional {
			logging.WarnWithContext(logger, "required dependency missing", "dependency_missing",
				logging.String("dependency", dep.Name),
				logging.String("detail", dep.Detail),
				logging.String(logging.FieldImpact, "jobs will fail at composition"),
			)
		}
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
