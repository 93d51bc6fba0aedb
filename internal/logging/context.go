package logging

import (
	"context"
	"log/slog"

	"reelforge/internal/services"
)

// contextExtractors pull the identifiers services stores on a context. Order
// here is the order fields appear on log lines.
var contextExtractors = []func(context.Context) (slog.Attr, bool){
	func(ctx context.Context) (slog.Attr, bool) {
		id, ok := services.JobIDFromContext(ctx)
		return slog.String(FieldJobID, id), ok
	},
	func(ctx context.Context) (slog.Attr, bool) {
		stage, ok := services.StageFromContext(ctx)
		return slog.String(FieldStage, stage), ok
	},
	func(ctx context.Context) (slog.Attr, bool) {
		idx, ok := services.SceneIndexFromContext(ctx)
		return slog.Int(FieldSceneIndex, idx), ok
	},
	func(ctx context.Context) (slog.Attr, bool) {
		rid, ok := services.RequestIDFromContext(ctx)
		return slog.String(FieldCorrelationID, rid), ok
	},
}

// ContextFields returns the job, stage, scene and request identifiers found
// on ctx.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var fields []Attr
	for _, extract := range contextExtractors {
		if attr, ok := extract(ctx); ok {
			fields = append(fields, attr)
		}
	}
	return fields
}

// WithContext returns logger annotated with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
