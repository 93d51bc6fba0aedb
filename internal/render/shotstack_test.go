package render

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reelforge/internal/services"
	"reelforge/internal/services/shotstack"
)

type fakeShotstack struct {
	mu        sync.Mutex
	edits     []shotstack.Edit
	statuses  []shotstack.RenderStatus
	polls     int
	submitErr error
	data      []byte
	fetched   string
}

func (f *fakeShotstack) Submit(_ context.Context, edit shotstack.Edit) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.edits = append(f.edits, edit)
	return "render-1", nil
}

func (f *fakeShotstack) Status(_ context.Context, id string) (shotstack.RenderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := min(f.polls, len(f.statuses)-1)
	f.polls++
	status := f.statuses[idx]
	status.ID = id
	return status, nil
}

func (f *fakeShotstack) Download(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = url
	return f.data, nil
}

func hostedSpec() [][2]string {
	return [][2]string{
		{"https://cdn.test/0.png", "https://cdn.test/0.mp3"},
		{"https://cdn.test/1.png", "https://cdn.test/1.mp3"},
	}
}

func TestBuildShotstackEditTracks(t *testing.T) {
	edit, err := BuildShotstackEdit(testSpec(hostedSpec()...), "hd")
	if err != nil {
		t.Fatalf("BuildShotstackEdit: %v", err)
	}
	if len(edit.Timeline.Tracks) != 2 {
		t.Fatalf("expected image and audio tracks, got %d", len(edit.Timeline.Tracks))
	}
	images, audio := edit.Timeline.Tracks[0].Clips, edit.Timeline.Tracks[1].Clips
	if len(images) != 2 || len(audio) != 2 {
		t.Fatalf("unexpected clip counts %d/%d", len(images), len(audio))
	}
	if images[1].Start != 4 || images[1].Length != 4 {
		t.Fatalf("unexpected placement %+v", images[1])
	}
	if images[0].Asset.Type != "image" || images[0].Effect != "zoomIn" {
		t.Fatalf("unexpected image clip %+v", images[0])
	}
	if images[0].Transition == nil || images[0].Transition.In != "fade" || images[0].Transition.Out != "fade" {
		t.Fatalf("expected fades, got %+v", images[0].Transition)
	}
	if audio[1].Asset.Type != "audio" || audio[1].Asset.Src != "https://cdn.test/1.mp3" || audio[1].Start != 4 {
		t.Fatalf("unexpected audio clip %+v", audio[1])
	}
	if edit.Output.Format != "mp4" || edit.Output.Resolution != "hd" {
		t.Fatalf("unexpected output %+v", edit.Output)
	}
}

func TestBuildShotstackEditRejectsLocalMedia(t *testing.T) {
	if _, err := BuildShotstackEdit(testSpec([2]string{"/tmp/a.png", "/tmp/a.mp3"}), "sd"); err == nil {
		t.Fatal("expected local paths to be rejected")
	}
}

func TestShotstackRenderPollsUntilDone(t *testing.T) {
	api := &fakeShotstack{
		statuses: []shotstack.RenderStatus{
			{Status: shotstack.StatusQueued},
			{Status: shotstack.StatusRendering},
			{Status: shotstack.StatusDone, URL: "https://cdn.test/out.mp4"},
		},
		data: []byte("mp4"),
	}
	executor := NewShotstack(api, ShotstackConfig{PollInterval: time.Millisecond})
	data, err := executor.Render(context.Background(), testSpec(hostedSpec()...))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(data) != "mp4" || api.fetched != "https://cdn.test/out.mp4" {
		t.Fatalf("unexpected result %q from %q", data, api.fetched)
	}
	if api.polls != 3 {
		t.Fatalf("expected 3 polls, got %d", api.polls)
	}
}

func TestShotstackRenderFailure(t *testing.T) {
	api := &fakeShotstack{statuses: []shotstack.RenderStatus{{Status: shotstack.StatusFailed, Error: "asset unreachable"}}}
	executor := NewShotstack(api, ShotstackConfig{PollInterval: time.Millisecond})
	_, err := executor.Render(context.Background(), testSpec(hostedSpec()...))
	if !errors.Is(err, services.ErrComposition) {
		t.Fatalf("expected composition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "asset unreachable") {
		t.Fatalf("expected provider error text, got %v", err)
	}
}

func TestShotstackRenderTimeout(t *testing.T) {
	api := &fakeShotstack{statuses: []shotstack.RenderStatus{{Status: shotstack.StatusRendering}}}
	executor := NewShotstack(api, ShotstackConfig{PollInterval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond})
	_, err := executor.Render(context.Background(), testSpec(hostedSpec()...))
	if !errors.Is(err, services.ErrComposition) || !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected composition timeout, got %v", err)
	}
}

func TestShotstackRenderSubmitError(t *testing.T) {
	api := &fakeShotstack{submitErr: errors.New("unauthorized")}
	executor := NewShotstack(api, ShotstackConfig{})
	if _, err := executor.Render(context.Background(), testSpec(hostedSpec()...)); !errors.Is(err, services.ErrComposition) {
		t.Fatalf("expected composition error, got %v", err)
	}
}
