package drapto

import (
	"strings"
	"time"

	draptolib "github.com/five82/drapto"
)

// progressReporter adapts the Drapto Reporter interface to a ProgressUpdate
// callback. Summaries reelforge never shows (hardware, crop, batch) are dropped.
type progressReporter struct {
	callback func(ProgressUpdate)
	now      func() time.Time
}

func newProgressReporter(callback func(ProgressUpdate)) *progressReporter {
	return &progressReporter{callback: callback, now: time.Now}
}

func (r *progressReporter) emit(update ProgressUpdate) {
	update.Timestamp = r.now()
	r.callback(update)
}

func (r *progressReporter) Hardware(draptolib.HardwareSummary) {}

func (r *progressReporter) Initialization(draptolib.InitializationSummary) {}

func (r *progressReporter) StageProgress(s draptolib.StageProgress) {
	var eta time.Duration
	if s.ETA != nil {
		eta = *s.ETA
	}
	r.emit(ProgressUpdate{
		Type:    EventTypeStageProgress,
		Percent: float64(s.Percent),
		Stage:   s.Stage,
		Message: s.Message,
		ETA:     eta,
	})
}

func (r *progressReporter) CropResult(draptolib.CropSummary) {}

func (r *progressReporter) EncodingConfig(draptolib.EncodingConfigSummary) {}

func (r *progressReporter) EncodingStarted(totalFrames uint64) {
	r.emit(ProgressUpdate{
		Type:        EventTypeEncodingStarted,
		Stage:       "encoding",
		TotalFrames: int64(totalFrames),
	})
}

func (r *progressReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingProgress,
		Percent: float64(s.Percent),
		Stage:   "encoding",
		Speed:   float64(s.Speed),
		FPS:     float64(s.FPS),
		ETA:     s.ETA,
	})
}

func (r *progressReporter) ValidationComplete(s draptolib.ValidationSummary) {
	failed := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		if !step.Passed {
			failed = append(failed, step.Name)
		}
	}
	r.emit(ProgressUpdate{
		Type:    EventTypeValidation,
		Stage:   "validation",
		Passed:  s.Passed,
		Message: strings.Join(failed, ", "),
	})
}

func (r *progressReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.emit(ProgressUpdate{
		Type:         EventTypeEncodingComplete,
		Percent:      100,
		Stage:        "complete",
		OutputPath:   s.OutputPath,
		OriginalSize: int64(s.OriginalSize),
		EncodedSize:  int64(s.EncodedSize),
	})
}

func (r *progressReporter) Warning(message string) {
	r.emit(ProgressUpdate{Type: EventTypeWarning, Message: message})
}

func (r *progressReporter) Error(e draptolib.ReporterError) {
	message := strings.TrimSpace(e.Title + ": " + e.Message)
	r.emit(ProgressUpdate{Type: EventTypeError, Message: strings.TrimPrefix(message, ": ")})
}

func (r *progressReporter) OperationComplete(message string) {
	r.emit(ProgressUpdate{Type: EventTypeOperationComplete, Message: message})
}

func (r *progressReporter) BatchStarted(draptolib.BatchStartInfo) {}

func (r *progressReporter) FileProgress(draptolib.FileProgressContext) {}

func (r *progressReporter) BatchComplete(draptolib.BatchSummary) {}

var _ draptolib.Reporter = (*progressReporter)(nil)
