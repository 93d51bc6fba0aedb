package shotstack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelforge/internal/services/httpretry"
)

func TestSubmitPostsEdit(t *testing.T) {
	var got Edit
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/stage/render" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if key := r.Header.Get("x-api-key"); key != "ss-key" {
			t.Errorf("unexpected api key %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode edit: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"Created","response":{"id":"r-1","message":"Render Successfully Queued"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "ss-key", BaseURL: server.URL})
	edit := Edit{
		Timeline: Timeline{Tracks: []Track{{Clips: []Clip{{Asset: Asset{Type: "image", Src: "https://x/a.png"}, Start: 0, Length: 6}}}}},
		Output:   Output{Format: "mp4", Resolution: "sd"},
	}
	id, err := client.Submit(context.Background(), edit)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "r-1" {
		t.Fatalf("unexpected id %q", id)
	}
	if len(got.Timeline.Tracks) != 1 || got.Timeline.Tracks[0].Clips[0].Asset.Src != "https://x/a.png" {
		t.Fatalf("edit not transmitted: %+v", got)
	}
}

func TestStatusDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/render/r-9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"OK","response":{"id":"r-9","status":"done","url":"https://cdn/r-9.mp4"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Environment: "v1"})
	status, err := client.Status(context.Background(), "r-9")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Terminal() || status.URL != "https://cdn/r-9.mp4" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestSubmitReportsAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid timeline","response":{}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithRetryPolicy(httpretry.Policy{MaxAttempts: 1}))
	_, err := client.Submit(context.Background(), Edit{})
	if err == nil || !strings.Contains(err.Error(), "Invalid timeline") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestDownloadRetriesServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("mp4"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k"},
		WithRetryPolicy(httpretry.Policy{MaxAttempts: 3, Sleeper: func(time.Duration) {}}))
	data, err := client.Download(context.Background(), server.URL+"/file.mp4")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "mp4" || calls != 2 {
		t.Fatalf("unexpected download result %q after %d calls", data, calls)
	}
}

func TestSubmitRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{}).Submit(context.Background(), Edit{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
