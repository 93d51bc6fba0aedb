package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelforge/internal/assets"
	"reelforge/internal/config"
	"reelforge/internal/daemon"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/pipeline"
	"reelforge/internal/scene"
	"reelforge/internal/testsupport"
)

type scriptStub struct{}

func (scriptStub) Generate(_ context.Context, concept string) (scene.Script, error) {
	return scene.Script{
		Title: concept,
		Scenes: []scene.Scene{
			{SegmentID: 1, VisualDescription: "aerial view of " + concept, Voiceover: "It begins here."},
			{SegmentID: 2, VisualDescription: "close up of " + concept, Voiceover: "And ends here."},
		},
	}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *jobs.Store
	uploads    *testsupport.FakeArtifactStore
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	testsupport.StubFFmpeg(t)
	cfg := testsupport.NewConfig(t, func(c *config.Config) { c.Pipeline.PollInterval = 1 })
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "reelforge", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	uploads := &testsupport.FakeArtifactStore{BaseURL: "https://cdn.test"}
	orch, err := pipeline.NewOrchestrator(pipeline.Deps{
		Store:    store,
		Fetcher:  assets.NewFetcher(&testsupport.FakeGenerator{}, &testsupport.FakeGenerator{}, uploads),
		Renderer: &testsupport.FakeRenderer{},
		Uploader: uploads,
		JobLogs:  logging.NewJobLogs(cfg),
	}, pipeline.Settings{SceneDuration: cfg.SceneDuration()})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	sub, err := pipeline.NewSubmitter(context.Background(), store, orch, 2, logging.NewNop())
	if err != nil {
		t.Fatalf("NewSubmitter: %v", err)
	}

	d, err := daemon.New(cfg, store, sub, logging.NewNop(), daemon.WithScriptGenerator(scriptStub{}))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}

	t.Cleanup(func() {
		d.Stop()
		cancel()
		_ = sub.Close(5 * time.Second)
		_ = d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		uploads:    uploads,
		daemon:     d,
		apiAddr:    d.Address(),
		configPath: configPath,
		baseDir:    base,
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, args, e.apiAddr, e.configPath, nil)
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nwork_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[storage]\nlocal_dir = %q\n\n[pipeline]\npoll_interval = %d\n",
		cfg.Paths.WorkDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Storage.LocalDir,
		cfg.Pipeline.PollInterval,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeScriptFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func submittedID(t *testing.T, output string) string {
	t.Helper()
	const prefix = "Submitted job "
	for _, line := range strings.Split(output, "\n") {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			id, _, _ := strings.Cut(rest, ",")
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no job id in output %q", output)
	return ""
}
