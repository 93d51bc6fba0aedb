package testsupport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reelforge/internal/artifact"
	"reelforge/internal/timeline"
)

// FakeGenerator records Generate calls and returns canned bytes.
type FakeGenerator struct {
	Data []byte
	Err  error
	// FailOn returns the mapped error when the content matches.
	FailOn map[string]error
	// Delay holds each call until it elapses or the context ends.
	Delay time.Duration
	// OnCall runs at the start of every call.
	OnCall func(content string)

	mu    sync.Mutex
	calls []string
}

// Generate implements assets.Generator.
func (g *FakeGenerator) Generate(ctx context.Context, content string) ([]byte, error) {
	g.mu.Lock()
	g.calls = append(g.calls, content)
	g.mu.Unlock()
	if g.OnCall != nil {
		g.OnCall(content)
	}
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err, ok := g.FailOn[content]; ok {
		return nil, err
	}
	if g.Err != nil {
		return nil, g.Err
	}
	if g.Data == nil {
		return []byte("data:" + content), nil
	}
	return g.Data, nil
}

// Calls returns the contents passed to Generate, in call order.
func (g *FakeGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// StoredArtifact is one payload accepted by FakeArtifactStore.
type StoredArtifact struct {
	Kind artifact.Kind
	Data []byte
	URL  string
}

// FakeArtifactStore keeps uploads in memory and hands out predictable URLs.
type FakeArtifactStore struct {
	BaseURL   string
	Err       error
	FailKinds map[artifact.Kind]error

	// BlankKinds accepts uploads of these kinds but reports an empty URL.
	BlankKinds map[artifact.Kind]bool

	mu     sync.Mutex
	stored []StoredArtifact
}

// Store implements assets.Uploader.
func (s *FakeArtifactStore) Store(ctx context.Context, data []byte, kind artifact.Kind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := s.FailKinds[kind]; ok {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.BlankKinds[kind] {
		return "", nil
	}
	base := s.BaseURL
	if base == "" {
		base = "https://artifacts.test"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	url := fmt.Sprintf("%s/%s/%d", base, kind.Folder(), len(s.stored))
	s.stored = append(s.stored, StoredArtifact{Kind: kind, Data: append([]byte(nil), data...), URL: url})
	return url, nil
}

// Stored returns every accepted artifact.
func (s *FakeArtifactStore) Stored() []StoredArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoredArtifact(nil), s.stored...)
}

// StoredOfKind returns accepted artifacts of one kind.
func (s *FakeArtifactStore) StoredOfKind(kind artifact.Kind) []StoredArtifact {
	var out []StoredArtifact
	for _, item := range s.Stored() {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// FakeRenderer records render requests.
type FakeRenderer struct {
	Data []byte
	Err  error
	// Release, when set, blocks Render until it is closed.
	Release chan struct{}

	mu    sync.Mutex
	specs []timeline.RenderSpec
}

// Render implements render.Executor.
func (r *FakeRenderer) Render(ctx context.Context, spec timeline.RenderSpec) ([]byte, error) {
	r.mu.Lock()
	r.specs = append(r.specs, spec)
	r.mu.Unlock()
	if r.Release != nil {
		select {
		case <-r.Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Data == nil {
		return []byte("mp4-bytes"), nil
	}
	return r.Data, nil
}

// Specs returns the specs passed to Render.
func (r *FakeRenderer) Specs() []timeline.RenderSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]timeline.RenderSpec(nil), r.specs...)
}

// Name identifies the fake in logs.
func (r *FakeRenderer) Name() string { return "fake" }
