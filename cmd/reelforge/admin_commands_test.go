package main

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Render backend: ffmpeg")

	if _, _, err := env.run(t, "config", "validate", "--providers"); err == nil {
		t.Fatal("expected provider validation to fail without keys")
	}

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	if _, _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("ELEVENLABS_API_KEY", "el-live-key")

	out, _, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "el-live-key") {
		t.Fatalf("credential leaked:\n%s", out)
	}
	requireContains(t, out, "<redacted>")
	requireContains(t, out, "[render]")
	requireContains(t, out, env.cfg.Paths.WorkDir)
}

func TestDoctorWithRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "doctor", "--json")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	var report doctorReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode doctor report: %v", err)
	}
	if !report.DaemonRunning || report.Health.PID != os.Getpid() {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Preflight) == 0 {
		t.Fatal("expected preflight results")
	}
}

func TestDoctorWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	out, _, err := runCLI(t, []string{"doctor"}, addr, env.configPath, nil)
	if err != nil {
		t.Fatalf("doctor offline: %v\n%s", err, out)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "Work directory")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications not configured")
}

func TestStopWhenNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	out, _, err := runCLI(t, []string{"stop"}, addr, env.configPath, nil)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestLogsForJob(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeScriptFile(t, env.baseDir, "lighthouse.json", lighthouseScript)
	out, _, err := env.run(t, "submit", "--wait", path)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := submittedID(t, out)

	out, _, err = env.run(t, "logs", id, "-n", "200")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, id)
}

func TestLogsUnknownJob(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "logs", "nope"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}
