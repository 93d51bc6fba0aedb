package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
)

const consoleTimeLayout = "2006-01-02 15:04:05.000"

// consoleHandler writes one human-readable line per record:
//
//	2026-03-01 12:00:00.000 INF pipeline [01234567 scene 2 assets] scene ready kind=image
//
// Component, job, scene and stage attributes are folded into the bracketed
// subject instead of being repeated as key=value pairs.
type consoleHandler struct {
	out    *lockedWriter
	level  slog.Leveler
	color  bool
	source bool

	prefix  string  // open groups, "a.b."
	subject subject // captured from WithAttrs
	attrs   []byte  // pre-rendered " k=v" pairs from WithAttrs
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource, color bool) *consoleHandler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, source: addSource, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	subj := h.subject
	tail := slices.Clone(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		tail = appendConsoleAttr(tail, &subj, h.prefix, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf := make([]byte, 0, 96+len(r.Message)+len(tail))
	buf = ts.Local().AppendFormat(buf, consoleTimeLayout)
	buf = append(buf, ' ')
	buf = append(buf, levelTag(r.Level, h.color)...)
	if subj.component != "" {
		buf = append(buf, ' ')
		buf = append(buf, subj.component...)
	}
	if s := subj.String(); s != "" {
		buf = append(buf, " ["...)
		buf = append(buf, s...)
		buf = append(buf, ']')
	}
	buf = append(buf, ' ')
	if msg := strings.TrimSpace(r.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, '-')
	}
	if h.source && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf = fmt.Appendf(buf, " (%s:%d)", filepath.Base(frame.File), frame.Line)
	}
	buf = append(buf, tail...)
	buf = append(buf, '\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(buf)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, a := range attrs {
		clone.attrs = appendConsoleAttr(clone.attrs, &clone.subject, clone.prefix, a)
	}
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.prefix += name + "."
	return clone
}

func (h *consoleHandler) clone() *consoleHandler {
	clone := *h
	clone.attrs = slices.Clip(h.attrs)
	return &clone
}

// subject identifies what a log line is about.
type subject struct {
	component, job, scene, stage string
}

func (s *subject) capture(a slog.Attr) bool {
	switch a.Key {
	case FieldComponent:
		s.component = a.Value.String()
	case FieldJobID:
		s.job = a.Value.String()
	case FieldSceneIndex:
		s.scene = a.Value.String()
	case FieldStage:
		s.stage = a.Value.String()
	default:
		return false
	}
	return true
}

func (s subject) String() string {
	parts := make([]string, 0, 3)
	if job := strings.TrimSpace(s.job); job != "" {
		parts = append(parts, job[:min(len(job), 8)])
	}
	if s.scene != "" {
		parts = append(parts, "scene "+s.scene)
	}
	if s.stage != "" {
		parts = append(parts, s.stage)
	}
	return strings.Join(parts, " ")
}

func appendConsoleAttr(buf []byte, subj *subject, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = appendConsoleAttr(buf, subj, inner, ga)
		}
		return buf
	}
	if prefix == "" && subj.capture(a) {
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	if isSecretKey(a.Key) && a.Value.Kind() == slog.KindString && a.Value.String() != "" {
		return append(buf, redacted...)
	}
	return appendConsoleValue(buf, a.Value)
}

func appendConsoleValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendMaybeQuoted(buf, v.String())
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(buf, time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return appendMaybeQuoted(buf, err.Error())
		}
		return appendMaybeQuoted(buf, fmt.Sprint(v.Any()))
	default:
		return append(buf, v.String()...)
	}
}

func appendMaybeQuoted(buf []byte, s string) []byte {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func levelTag(level slog.Level, color bool) string {
	label, colors := "DBG", text.Colors{text.FgHiBlack}
	switch {
	case level >= slog.LevelError:
		label, colors = "ERR", text.Colors{text.FgHiRed, text.Bold}
	case level >= slog.LevelWarn:
		label, colors = "WRN", text.Colors{text.FgYellow}
	case level >= slog.LevelInfo:
		label, colors = "INF", text.Colors{text.FgGreen}
	}
	if !color {
		return label
	}
	return colors.Sprint(label)
}
