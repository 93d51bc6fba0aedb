package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if h := newFanoutHandler(nil, nil); h != slog.DiscardHandler {
		t.Fatalf("expected discard handler for all nil handlers, got %T", h)
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner, nil); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoHandler := slog.NewJSONHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugHandler := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := newFanoutHandler(infoHandler, debugHandler)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled for debug when any handler accepts it")
	}
	slog.New(h).Debug("debug only message")

	if infoBuf.Len() != 0 {
		t.Fatal("info handler should not receive debug messages")
	}
	if debugBuf.Len() == 0 {
		t.Fatal("debug handler should receive debug messages")
	}
}

func TestFanoutHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h := newFanoutHandler(slog.NewJSONHandler(&buf1, nil), slog.NewJSONHandler(&buf2, nil))
	logger := slog.New(h).With(slog.String("job_id", "abc")).WithGroup("render")
	logger.Info("test", slog.String("phase", "mux"))

	for i, buf := range []*bytes.Buffer{&buf1, &buf2} {
		for _, want := range []string{`"job_id":"abc"`, `"render"`, `"phase":"mux"`} {
			if !bytes.Contains(buf.Bytes(), []byte(want)) {
				t.Fatalf("buffer %d missing %s: %s", i, want, buf.String())
			}
		}
	}
}

func TestTeeLogger(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, nil))
	TeeLogger(base, slog.NewJSONHandler(&teeBuf, nil)).Info("teed message")
	if baseBuf.Len() == 0 || teeBuf.Len() == 0 {
		t.Fatalf("expected output in both buffers: base=%d tee=%d", baseBuf.Len(), teeBuf.Len())
	}

	var onlyTee bytes.Buffer
	TeeLogger(nil, slog.NewJSONHandler(&onlyTee, nil)).Info("no base")
	if onlyTee.Len() == 0 {
		t.Fatal("expected output in tee buffer with nil base")
	}
}
