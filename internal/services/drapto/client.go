package drapto

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// EventType classifies a ProgressUpdate.
type EventType string

const (
	EventTypeStageProgress     EventType = "stage_progress"
	EventTypeEncodingStarted   EventType = "encoding_started"
	EventTypeEncodingProgress  EventType = "encoding_progress"
	EventTypeEncodingComplete  EventType = "encoding_complete"
	EventTypeValidation        EventType = "validation"
	EventTypeWarning           EventType = "warning"
	EventTypeError             EventType = "error"
	EventTypeOperationComplete EventType = "operation_complete"
)

// ProgressUpdate captures Drapto progress events.
type ProgressUpdate struct {
	Type         EventType
	Timestamp    time.Time
	Percent      float64
	Stage        string
	Message      string
	ETA          time.Duration
	Speed        float64
	FPS          float64
	TotalFrames  int64
	OutputPath   string
	OriginalSize int64
	EncodedSize  int64
	Passed       bool
}

// Client defines Drapto encoding behaviour.
type Client interface {
	Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error)
}

// OutputPath returns where Drapto writes the encode of inputPath.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}
