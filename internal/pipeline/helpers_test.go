package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reelforge/internal/assets"
	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
	"reelforge/internal/scene"
	"reelforge/internal/testsupport"
)

type harness struct {
	cfg      *config.Config
	store    *jobs.Store
	image    *testsupport.FakeGenerator
	voice    *testsupport.FakeGenerator
	uploads  *testsupport.FakeArtifactStore
	renderer *testsupport.FakeRenderer
	fetcher  *countingFetcher
	notifier *recordingNotifier
	deps     Deps
	settings Settings
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	h := &harness{
		cfg:      cfg,
		store:    testsupport.MustOpenStore(t, cfg),
		image:    &testsupport.FakeGenerator{},
		voice:    &testsupport.FakeGenerator{},
		uploads:  &testsupport.FakeArtifactStore{},
		renderer: &testsupport.FakeRenderer{},
		notifier: &recordingNotifier{},
	}
	h.fetcher = &countingFetcher{inner: assets.NewFetcher(h.image, h.voice, h.uploads)}
	h.deps = Deps{
		Store:    h.store,
		Fetcher:  h.fetcher,
		Renderer: h.renderer,
		Uploader: h.uploads,
		Notifier: h.notifier,
		Logger:   logging.NewNop(),
	}
	h.settings = Settings{SceneDuration: 4 * time.Second}
	return h
}

func (h *harness) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(h.deps, h.settings)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orch
}

// createJob stores scenes the way Submit does and returns the job id.
func (h *harness) createJob(t *testing.T, title string, scenes []scene.Scene) string {
	t.Helper()
	raw, err := scene.EncodeScenes(scenes)
	if err != nil {
		t.Fatalf("EncodeScenes: %v", err)
	}
	id, err := h.store.Create(context.Background(), title, raw)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return id
}

func testScenes(n int) []scene.Scene {
	out := make([]scene.Scene, n)
	for i := range out {
		out[i] = scene.Scene{
			SegmentID:         i + 1,
			VisualDescription: fmt.Sprintf("visual %d", i+1),
			Voiceover:         fmt.Sprintf("narration %d", i+1),
		}
	}
	return out
}

func waitForStatus(t *testing.T, store *jobs.Store, id string, want jobs.Status) *jobs.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		job := testsupport.MustGetJob(t, store, id)
		if job.Status == want {
			return job
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %q, want %q", id, job.Status, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// countingFetcher tracks how many Fetch calls overlap.
type countingFetcher struct {
	inner    SceneFetcher
	panicOn  int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (f *countingFetcher) Fetch(ctx context.Context, sc scene.Scene) (scene.Asset, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	call := f.calls.Add(1)
	if f.panicOn > 0 && int(call) == f.panicOn {
		panic("fetcher exploded")
	}
	time.Sleep(2 * time.Millisecond)
	return f.inner.Fetch(ctx, sc)
}

type notification struct {
	kind  string
	title string
	value string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) NotifyJobCompleted(_ context.Context, title, videoURL string) error {
	n.record(notification{kind: "completed", title: title, value: videoURL})
	return nil
}

func (n *recordingNotifier) NotifyJobFailed(_ context.Context, title, errorKind string) error {
	n.record(notification{kind: "failed", title: title, value: errorKind})
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func (n *recordingNotifier) record(item notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, item)
}

func (n *recordingNotifier) Sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.sent...)
}
