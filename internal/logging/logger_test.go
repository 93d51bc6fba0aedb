package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

func TestNewDaemonLoggerWritesRunLogAndPointer(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	stamp := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	logger, runLog, err := logging.NewDaemonLogger(&cfg, logging.DaemonLogOptions{Now: func() time.Time { return stamp }})
	if err != nil {
		t.Fatalf("NewDaemonLogger returned error: %v", err)
	}
	if want := filepath.Join(cfg.Paths.LogDir, "reelforge-20260304T050607.000Z.log"); runLog != want {
		t.Fatalf("unexpected run log path %q, want %q", runLog, want)
	}
	logger.Info("daemon started")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.CurrentLogName))
	if err != nil {
		t.Fatalf("read current log: %v", err)
	}
	if !strings.Contains(string(content), "daemon started") {
		t.Fatalf("expected message through current log pointer, got %q", content)
	}
}

func TestNewDaemonLoggerRequiresLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = ""
	if _, _, err := logging.NewDaemonLogger(&cfg, logging.DaemonLogOptions{}); err == nil {
		t.Fatal("expected error without log directory")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithJobID(context.Background(), "0123456789abcdef")
	ctx = services.WithStage(ctx, "assets")
	ctx = services.WithSceneIndex(ctx, 2)
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "pipeline")).Info("scene ready", logging.String("kind", "image"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INF pipeline [01234567 scene 2 assets] scene ready", "kind=image"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "job_id=") {
		t.Fatalf("expected job id folded into subject, got %q", line)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	err = services.Wrap(services.ErrUpload, "assets", "store", "", errors.New("403"))
	logger.Warn("upload failed", logging.Error(err), logging.ErrorKind(err))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "upload failed" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %v", payload)
	}
	if payload[logging.FieldErrorKind] != services.KindUpload {
		t.Fatalf("expected error kind upload, got %v", payload[logging.FieldErrorKind])
	}
}

func readJSONLine(t *testing.T, path string) map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &payload); err != nil {
		t.Fatalf("decode json log %q: %v", content, err)
	}
	return payload
}

func TestJSONLoggerRedactsSecretsAndWritesSeconds(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json-redact.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("provider configured",
		logging.String("elevenlabs_api_key", "sk-live"),
		logging.String("api_token", ""),
		logging.Duration("elapsed", 1500*time.Millisecond),
	)

	payload := readJSONLine(t, logPath)
	if payload["elevenlabs_api_key"] != "[redacted]" {
		t.Fatalf("expected redacted key, got %v", payload["elevenlabs_api_key"])
	}
	if payload["api_token"] != "" {
		t.Fatalf("expected empty token left as is, got %v", payload["api_token"])
	}
	if payload["elapsed"] != 1.5 {
		t.Fatalf("expected elapsed in seconds, got %v", payload["elapsed"])
	}
}

func TestErrorWithContextStampsErrorKind(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.TeeLogger(nil, jsonHandler(&buf))
	cause := services.Wrap(services.ErrComposition, "render", "ffmpeg", "", errors.New("exit status 1"))
	logging.ErrorWithContext(logger, "render failed", "render_failed", logging.Error(cause))

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldErrorKind] != services.KindComposition {
		t.Fatalf("expected composition kind, got %v", payload[logging.FieldErrorKind])
	}
	if payload[logging.FieldEventType] != "render_failed" {
		t.Fatalf("expected event type, got %v", payload[logging.FieldEventType])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.TeeLogger(nil, jsonHandler(&buf))
	logging.WarnWithContext(logger, "storage slow", "storage_slow")

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected %s in %v", key, payload)
		}
	}
}

func TestJobLogsOpenCreatesNamedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	logs := logging.NewJobLogs(&cfg)

	jobLog, err := logs.Open("job-1", "The Deep Sea: Part 2")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer jobLog.Close()

	if filepath.Dir(jobLog.Path) != cfg.JobLogDir() {
		t.Fatalf("unexpected job log dir: %q", jobLog.Path)
	}
	base := filepath.Base(jobLog.Path)
	if !strings.HasSuffix(base, "-the-deep-sea-part-2-job-1.log") {
		t.Fatalf("unexpected job log name: %q", base)
	}

	var daemonBuf bytes.Buffer
	logger := logging.TeeLogger(logging.NewNop(), jobLog.Handler)
	logger = logging.TeeLogger(logger, jsonHandler(&daemonBuf))
	logger.Info("job started", logging.String(logging.FieldJobID, "job-1"))
	if err := jobLog.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(jobLog.Path)
	if err != nil {
		t.Fatalf("read job log: %v", err)
	}
	if !strings.Contains(string(content), `"job_id":"job-1"`) {
		t.Fatalf("expected json job log line, got %q", content)
	}
	if daemonBuf.Len() == 0 {
		t.Fatal("expected tee into daemon handler")
	}
}

func TestJobLogsRequiresDirectory(t *testing.T) {
	logs := logging.NewJobLogs(nil)
	if _, err := logs.Open("job", "title"); err == nil {
		t.Fatal("expected error without directory")
	}
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.log")
	newPath := filepath.Join(dir, "new.log")
	keepPath := filepath.Join(dir, "keep.log")
	for _, p := range []string{oldPath, newPath, keepPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, p := range []string{oldPath, keepPath} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{Glob: filepath.Join(dir, "*.log"), Keep: []string{keepPath}})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, got %v", err)
	}
	for _, p := range []string{newPath, keepPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Glob: filepath.Join(dir, "*")}) != 0 {
		t.Fatal("expected retention 0 to disable pruning")
	}
}

func TestRetentionTargetsKeepCurrentDaemonLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	if err := os.MkdirAll(cfg.JobLogDir(), 0o755); err != nil {
		t.Fatalf("mkdir job logs: %v", err)
	}
	current := filepath.Join(cfg.Paths.LogDir, "reelforge-20260101T000000.000Z.log")
	previous := filepath.Join(cfg.Paths.LogDir, "reelforge-20250101T000000.000Z.log")
	jobLog := filepath.Join(cfg.JobLogDir(), "20250101T000000-intro-abc.log")
	database := filepath.Join(cfg.Paths.LogDir, "jobs.db")
	past := time.Now().AddDate(0, 0, -60)
	for _, p := range []string{current, previous, jobLog, database} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(nil, 30, logging.RetentionTargets(&cfg, current)...)
	if removed != 2 {
		t.Fatalf("expected previous daemon log and job log removed, got %d", removed)
	}
	for _, p := range []string{current, database} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}

func TestErrorOutputsOnlyReceiveWarnings(t *testing.T) {
	dir := t.TempDir()
	all := filepath.Join(dir, "all.log")
	problems := filepath.Join(dir, "problems.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{all}, ErrorOutputPaths: []string{problems, all}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("routine")
	logger.Warn("odd")

	allContent, _ := os.ReadFile(all)
	problemContent, _ := os.ReadFile(problems)
	if strings.Count(string(allContent), "\n") != 2 {
		t.Fatalf("expected both lines exactly once in the main log, got %q", allContent)
	}
	if strings.Contains(string(problemContent), "routine") || !strings.Contains(string(problemContent), "odd") {
		t.Fatalf("error log should hold only the warning, got %q", problemContent)
	}
}

func TestConsoleLoggerGroupsAndRedacts(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.WithGroup("voice").Info("provider ready",
		logging.String("api_key", "el-secret"),
		logging.String("voice_id", "calm narrator"),
		logging.Int("retries", 2),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INF provider ready", "voice.api_key=[redacted]", `voice.voice_id="calm narrator"`, "voice.retries=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "el-secret") {
		t.Fatalf("secret leaked: %q", line)
	}
}
