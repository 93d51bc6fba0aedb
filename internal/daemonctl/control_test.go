package daemonctl_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"reelforge/internal/api"
	"reelforge/internal/apiclient"
	"reelforge/internal/daemonctl"
	"reelforge/internal/testsupport"
)

func healthServer(t *testing.T, pid int) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.HealthResponse{Healthy: true, PID: pid})
	}))
	t.Cleanup(srv.Close)
	client, err := apiclient.New(srv.URL)
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return client
}

func unreachableClient(t *testing.T) *apiclient.Client {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()
	client, err := apiclient.New(addr)
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return client
}

func TestPIDFileRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	pidFile := daemonctl.PIDFileFor(cfg)
	if _, err := pidFile.Read(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if err := pidFile.Write(1234); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if pid, err := pidFile.Read(); err != nil || pid != 1234 {
		t.Fatalf("Read = %d, %v", pid, err)
	}
	if err := os.WriteFile(string(pidFile), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := pidFile.Read(); err == nil {
		t.Fatal("expected error for invalid pid file")
	}
	if err := pidFile.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := pidFile.Remove(); err != nil {
		t.Fatalf("second Remove should be a no-op: %v", err)
	}
}

func TestProcessAlive(t *testing.T) {
	if !daemonctl.ProcessAlive(os.Getpid()) {
		t.Fatal("expected current process to be alive")
	}
	if daemonctl.ProcessAlive(0) {
		t.Fatal("pid 0 must not be reported alive")
	}
}

func TestStopRefusesCurrentProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctl := daemonctl.NewController(healthServer(t, os.Getpid()), cfg)
	if _, err := ctl.Stop(context.Background(), time.Second); err == nil {
		t.Fatal("expected refusal to signal current process")
	}
}

func TestStartDetectsRunningDaemon(t *testing.T) {
	client := healthServer(t, 4242)
	result, err := daemonctl.NewController(client, testsupport.NewConfig(t)).
		Start(context.Background(), "/nonexistent/reelforge", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.Launched || result.PID != 4242 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestStartLaunchFailure(t *testing.T) {
	client := unreachableClient(t)
	_, err := daemonctl.NewController(client, testsupport.NewConfig(t)).
		Start(context.Background(), filepath.Join(t.TempDir(), "missing"), daemonctl.LaunchOptions{}, time.Second)
	if err == nil {
		t.Fatal("expected launch error for missing executable")
	}
}

func TestStopWhenNothingRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.NewController(unreachableClient(t), cfg).Stop(context.Background(), 100*time.Millisecond)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestStopSignalsDaemonProcess(t *testing.T) {
	sleepBin, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}
	cmd := exec.Command(sleepBin, "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-exited
	})

	cfg := testsupport.NewConfig(t)
	client := healthServer(t, cmd.Process.Pid)
	result, err := daemonctl.NewController(client, cfg).Stop(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !result.Signalled || result.ForcedKill || result.PID != cmd.Process.Pid {
		t.Fatalf("unexpected result %+v", result)
	}
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after SIGTERM")
	}
}

func TestStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.MustCreateJob(t, store, "Offline")

	snapshot, err := daemonctl.NewController(unreachableClient(t), cfg).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.Running {
		t.Fatal("expected offline snapshot")
	}
	if snapshot.Health.Counts["processing"] != 1 {
		t.Fatalf("expected one processing job from database, got %v", snapshot.Health.Counts)
	}
	if snapshot.Health.RenderBackend != cfg.Render.Backend || len(snapshot.Health.Dependencies) == 0 {
		t.Fatalf("unexpected offline health %+v", snapshot.Health)
	}
}

func TestStatusSnapshotOnline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	snapshot, err := daemonctl.NewController(healthServer(t, 99), cfg).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !snapshot.Running || snapshot.Health.PID != 99 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
}

func TestStopFallsBackToPIDFile(t *testing.T) {
	sleepBin, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}
	cmd := exec.Command(sleepBin, "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-exited
	})

	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := daemonctl.PIDFileFor(cfg).Write(cmd.Process.Pid); err != nil {
		t.Fatal(err)
	}
	result, err := daemonctl.NewController(unreachableClient(t), cfg).Stop(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if result.PID != cmd.Process.Pid || !result.Signalled {
		t.Fatalf("unexpected result %+v", result)
	}
}
