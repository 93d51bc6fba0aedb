package main

import (
	"bytes"
	"strings"
	"testing"

	"reelforge/internal/api"
)

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Status", statusOK, "done", false)
	if !strings.Contains(plain, "Status:") || !strings.Contains(plain, "[OK] done") {
		t.Fatalf("unexpected line %q", plain)
	}
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("plain line must not contain escape codes: %q", plain)
	}
	colored := renderStatusLine("Status", statusError, "failed", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
	bare := renderStatusLine("Video", statusInfo, "", false)
	if !strings.HasSuffix(bare, "[INFO]") {
		t.Fatalf("expected bare badge, got %q", bare)
	}
}

func TestStatusKinds(t *testing.T) {
	if pollStatusKind(api.PollRendering) != statusWarn || pollStatusKind(api.PollDone) != statusOK || pollStatusKind(api.PollFailed) != statusError {
		t.Fatal("unexpected poll status mapping")
	}
	if jobStatusKind("processing") != statusWarn || jobStatusKind("bogus") != statusInfo {
		t.Fatal("unexpected job status mapping")
	}
	if dependencyKind(api.DependencyStatus{Optional: true}) != statusWarn {
		t.Fatal("missing optional dependency should warn")
	}
	if dependencyKind(api.DependencyStatus{}) != statusError {
		t.Fatal("missing required dependency should error")
	}
}

func TestShouldColorizeIgnoresBuffers(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(columns("ID", "Count#"), [][]string{{"abc"}, {"def", "3", "dropped"}})
	if !strings.Contains(out, "abc") || !strings.Contains(out, "Count") {
		t.Fatalf("unexpected table %q", out)
	}
	if strings.Contains(out, "dropped") || strings.Contains(out, "#") {
		t.Fatalf("extra cells and column markers must not render: %q", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty render without headers")
	}
}

func TestTruncate(t *testing.T) {
	if truncate("short", 10) != "short" {
		t.Fatal("short strings are unchanged")
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
