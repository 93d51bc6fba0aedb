package logging

import (
	"log/slog"
	"slices"

	"reelforge/internal/services"
)

type Attr = slog.Attr

// Attribute constructors, re-exported so callers import one logging package.
var (
	Any      = slog.Any
	Bool     = slog.Bool
	Duration = slog.Duration
	Float64  = slog.Float64
	Int      = slog.Int
	String   = slog.String
)

// Error attaches err under the "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorKind tags a log line with the failure classification of err.
func ErrorKind(err error) Attr { return slog.String(FieldErrorKind, services.Kind(err)) }

// Alert marks a line that should stand out when scanning logs.
func Alert(value string) Attr { return slog.String(FieldAlert, value) }

// Args converts attributes to the variadic form slog.Logger methods take.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger { return slog.New(slog.DiscardHandler) }

// NewComponentLogger tags logger with a component name. A nil logger yields
// a discarding one.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning carrying event_type, error_hint and impact.
// Missing fields get defaults; an error attribute also stamps error_kind.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withEventDefaults(attrs, eventType)
	if !hasKey(attrs, FieldImpact) {
		attrs = append(attrs, String(FieldImpact, "job continues; output may be incomplete"))
	}
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error carrying event_type and error_hint, plus
// error_kind when an error attribute is present.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(withEventDefaults(attrs, eventType)...)...)
}

func withEventDefaults(attrs []Attr, eventType string) []Attr {
	if !hasKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !hasKey(attrs, FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, "see the job log for the failing provider call"))
	}
	if hasKey(attrs, FieldErrorKind) {
		return attrs
	}
	if i := slices.IndexFunc(attrs, func(a Attr) bool { return a.Key == "error" }); i >= 0 {
		if err, ok := attrs[i].Value.Any().(error); ok {
			attrs = append(attrs, ErrorKind(err))
		}
	}
	return attrs
}

func hasKey(attrs []Attr, key string) bool {
	return slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == key })
}
