package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// fanoutHandler duplicates each record into every wrapped handler that accepts
// its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	filtered := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	switch len(filtered) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return filtered[0]
	default:
		return &fanoutHandler{handlers: filtered}
	}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(h.handlers, func(handler slog.Handler) bool {
		return handler.Enabled(ctx, level)
	})
}

// Handle writes record to every enabled handler. A failing job log file never
// stops the daemon log from receiving the record; all errors are joined.
func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
}

func (h *fanoutHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = fn(handler)
	}
	return &fanoutHandler{handlers: next}
}

// TeeLogger duplicates log output from base into the provided handlers. The
// pipeline uses it to mirror a job's records into that job's log file.
func TeeLogger(base *slog.Logger, handlers ...slog.Handler) *slog.Logger {
	if base != nil {
		handlers = append([]slog.Handler{base.Handler()}, handlers...)
	}
	return slog.New(newFanoutHandler(handlers...))
}
