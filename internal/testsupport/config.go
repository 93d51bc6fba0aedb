package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

// NewConfig returns the default config rooted in a fresh temp directory.
// Provider keys hold placeholders so provider validation passes; mutate
// applies per-test overrides in order.
func NewConfig(t testing.TB, mutate ...func(*config.Config)) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Storage.LocalDir = filepath.Join(base, "artifacts")
	cfg.Image.APIKey = "test"
	cfg.Voice.APIKey = "test"
	cfg.Pipeline.HeartbeatInterval = 1
	cfg.Pipeline.StaleAfter = 60
	cfg.Logging.RetentionDays = 0
	for _, fn := range mutate {
		fn(&cfg)
	}
	return &cfg
}

// ffmpegStub answers the capability probes the dependency check runs and
// exits 0 for anything else.
const ffmpegStub = `#!/bin/sh
for arg in "$@"; do
  case "$arg" in
    -version) echo "ffmpeg version 7.1-stub Copyright (c) the FFmpeg developers"; exit 0 ;;
    -encoders)
      echo " V....D libx264              libx264 H.264 / AVC"
      echo " A....D aac                  AAC (Advanced Audio Coding)"
      exit 0 ;;
  esac
done
exit 0
`

// StubFFmpeg installs a probe-compatible ffmpeg in a temp bin directory,
// prepends it to PATH for the rest of the test and returns its path.
func StubFFmpeg(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(path, []byte(ffmpegStub), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return path
}
