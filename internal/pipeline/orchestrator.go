package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"reelforge/internal/artifact"
	"reelforge/internal/assets"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/render"
	"reelforge/internal/scene"
	"reelforge/internal/services"
	"reelforge/internal/timeline"
)

const terminalWriteTimeout = 15 * time.Second

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Store    JobStore
	Fetcher  SceneFetcher
	Renderer render.Executor
	Uploader assets.Uploader
	// Archiver is optional; when set, finished videos also get an archival copy.
	Archiver Archiver
	Notifier notifications.Service
	JobLogs  *logging.JobLogs
	Logger   *slog.Logger
}

// Settings tune an Orchestrator.
type Settings struct {
	SceneDuration     time.Duration
	TimelineOptions   []timeline.Option
	UploadTimeout     time.Duration
	HeartbeatInterval time.Duration
}

// Orchestrator drives one job from scenes to a terminal status.
type Orchestrator struct {
	deps     Deps
	settings Settings
	logger   *slog.Logger
}

// NewOrchestrator validates deps and returns an Orchestrator.
func NewOrchestrator(deps Deps, settings Settings) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("pipeline: job store is required")
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: scene fetcher is required")
	case deps.Renderer == nil:
		return nil, errors.New("pipeline: render executor is required")
	case deps.Uploader == nil:
		return nil, errors.New("pipeline: artifact store is required")
	case settings.SceneDuration <= 0:
		return nil, errors.New("pipeline: scene duration must be positive")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		deps:     deps,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run executes the job and records its terminal status. It never returns an
// error: every failure ends in MarkFailed, and a failed terminal write is
// logged and leaves the job processing.
func (o *Orchestrator) Run(ctx context.Context, jobID, title string, scenes []scene.Scene) {
	ctx = services.WithJobID(ctx, jobID)
	logger, closeLog := o.jobLogger(ctx, jobID, title)
	defer closeLog()

	stopHeartbeat := startHeartbeat(ctx, o.deps.Store, logger, jobID, o.settings.HeartbeatInterval)
	started := time.Now()

	var (
		video []byte
		url   string
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("pipeline panic: %v", r)
				logger.Error("pipeline panic", logging.Any("panic", r), logging.String("stack", string(debug.Stack())))
			}
		}()
		video, url, err = o.produce(ctx, logger, scenes)
	}()
	stopHeartbeat()

	if err != nil {
		o.fail(ctx, logger, jobID, title, err)
		return
	}

	writeCtx, cancel := terminalContext(ctx)
	defer cancel()
	if markErr := o.deps.Store.MarkDone(writeCtx, jobID, url); markErr != nil {
		logging.ErrorWithContext(logger, "failed to record job completion", "job_terminal_write_failed",
			logging.Error(markErr),
			logging.String("video_url", url),
			logging.String(logging.FieldErrorHint, "the video was stored; the job stays processing until resubmitted"),
		)
		return
	}
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_done"),
		logging.String("video_url", url),
		logging.Int("scenes", len(scenes)),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)

	o.archive(ctx, logger, jobID, video)
	if notifyErr := o.deps.Notifier.NotifyJobCompleted(writeCtx, title, url); notifyErr != nil {
		logger.Warn("completion notification failed", logging.Error(notifyErr))
	}
}

// produce fetches every scene in order, composes the video and stores it.
func (o *Orchestrator) produce(ctx context.Context, logger *slog.Logger, scenes []scene.Scene) ([]byte, string, error) {
	if len(scenes) == 0 {
		return nil, "", services.Wrap(services.ErrValidation, "pipeline", "run", "job has no scenes", nil)
	}

	fetchCtx := services.WithStage(ctx, "fetch")
	collected := make([]scene.Asset, 0, len(scenes))
	for i, sc := range scenes {
		sceneCtx := services.WithSceneIndex(fetchCtx, i)
		asset, err := o.deps.Fetcher.Fetch(sceneCtx, sc)
		if err != nil {
			return nil, "", fmt.Errorf("scene %d of %d: %w", i+1, len(scenes), err)
		}
		logger.Info("scene assets ready",
			logging.String(logging.FieldEventType, "scene_ready"),
			logging.Int(logging.FieldSceneIndex, i),
			logging.String("image_url", asset.ImageURL),
			logging.String("audio_url", asset.AudioURL),
		)
		collected = append(collected, asset)
	}

	spec, err := timeline.Build(collected, o.settings.SceneDuration, o.settings.TimelineOptions...)
	if err != nil {
		return nil, "", err
	}
	logger.Info("timeline built",
		logging.String(logging.FieldEventType, "timeline_built"),
		logging.Int("entries", len(spec.Entries)),
		logging.Duration("total_duration", spec.TotalDuration()),
	)

	video, err := o.deps.Renderer.Render(services.WithStage(ctx, "render"), spec)
	if err != nil {
		if !errors.Is(err, services.ErrComposition) {
			err = services.Wrap(services.ErrComposition, "render", "execute", "", err)
		}
		return nil, "", err
	}

	url, err := o.store(services.WithStage(ctx, "store"), video, artifact.KindVideo)
	if err != nil {
		return nil, "", err
	}
	return video, url, nil
}

func (o *Orchestrator) store(ctx context.Context, data []byte, kind artifact.Kind) (string, error) {
	callCtx := ctx
	if o.settings.UploadTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.settings.UploadTimeout)
		defer cancel()
	}
	url, err := o.deps.Uploader.Store(callCtx, data, kind)
	if err == nil && url == "" {
		err = errors.New("artifact store returned empty url")
	}
	if err == nil {
		return url, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
		err = errors.Join(err, services.ErrTimeout)
	}
	if !errors.Is(err, services.ErrUpload) {
		err = services.Wrap(services.ErrUpload, "store", "upload "+string(kind), "", err)
	}
	return "", err
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, jobID, title string, cause error) {
	kind := services.Kind(cause)
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, kind),
		logging.Alert("job_failure"),
	)
	writeCtx, cancel := terminalContext(ctx)
	defer cancel()
	if err := o.deps.Store.MarkFailed(writeCtx, jobID, kind, cause.Error()); err != nil {
		logging.ErrorWithContext(logger, "failed to record job failure", "job_terminal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the job stays processing; the liveness monitor will report it"),
		)
		return
	}
	if err := o.deps.Notifier.NotifyJobFailed(writeCtx, title, kind); err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
}

// archive stores an archival encode. Failures never change the job outcome.
func (o *Orchestrator) archive(ctx context.Context, logger *slog.Logger, jobID string, video []byte) {
	if o.deps.Archiver == nil {
		return
	}
	ctx = services.WithStage(ctx, "archive")
	encoded, err := o.deps.Archiver.Archive(ctx, video)
	if err != nil {
		logging.WarnWithContext(logger, "archive encode failed", "archive_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job is done without an archival copy"),
		)
		return
	}
	url, err := o.store(ctx, encoded, artifact.KindVideo)
	if err != nil {
		logging.WarnWithContext(logger, "archive upload failed", "archive_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job is done without an archival copy"),
		)
		return
	}
	writeCtx, cancel := terminalContext(ctx)
	defer cancel()
	if err := o.deps.Store.SetArchiveURL(writeCtx, jobID, url); err != nil {
		logger.Warn("failed to record archive url", logging.Error(err), logging.String("archive_url", url))
		return
	}
	logger.Info("archive stored", logging.String(logging.FieldEventType, "archive_stored"), logging.String("archive_url", url))
}

// jobLogger tees the pipeline logger into the job's own log file when job
// logs are configured.
func (o *Orchestrator) jobLogger(ctx context.Context, jobID, title string) (*slog.Logger, func()) {
	base := logging.WithContext(ctx, o.logger)
	if o.deps.JobLogs == nil {
		return base, func() {}
	}
	jobLog, err := o.deps.JobLogs.Open(jobID, title)
	if err != nil {
		base.Warn("job log unavailable", logging.Error(err))
		return base, func() {}
	}
	if err := o.deps.Store.SetLogPath(ctx, jobID, jobLog.Path); err != nil {
		base.Warn("failed to record job log path", logging.Error(err))
	}
	logger := logging.TeeLogger(o.logger, jobLog.Handler)
	return logging.WithContext(ctx, logger), func() { _ = jobLog.Close() }
}

// terminalContext detaches terminal writes from job cancellation so a
// shutdown still records the outcome.
func terminalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
}

var _ Runner = (*Orchestrator)(nil)
