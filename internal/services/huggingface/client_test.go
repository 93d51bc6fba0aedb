package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelforge/internal/services/httpretry"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func fastRetry() Option {
	return WithRetryPolicy(httpretry.Policy{MaxAttempts: 3, Sleeper: func(time.Duration) {}})
}

func TestGenerateReturnsImageBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/models/acme/sd" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer hf-test" {
			t.Errorf("unexpected authorization %q", auth)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["inputs"] != "a lighthouse at dusk" {
			t.Errorf("unexpected inputs %q", body["inputs"])
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "hf-test", BaseURL: server.URL, Model: "acme/sd"})
	image, err := client.Generate(context.Background(), "  a lighthouse at dusk ")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !bytes.Equal(image, pngHeader) {
		t.Fatalf("unexpected image bytes %q", image)
	}
}

func TestGenerateFailsOnClientError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "acme/sd"}, fastRetry())
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error on 401")
	}
	if calls != 1 {
		t.Fatalf("expected no retries on 401, got %d calls", calls)
	}
}

func TestGenerateRetriesEmptyBodyThenFails(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "hf", BaseURL: server.URL, Model: "acme/sd"}, fastRetry())
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error on empty body")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGenerateRetriesServiceUnavailable(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "hf", BaseURL: server.URL, Model: "acme/sd"}, fastRetry())
	if _, err := client.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestGenerateRequiresPromptAndKey(t *testing.T) {
	client := NewClient(Config{APIKey: "hf"})
	if _, err := client.Generate(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank prompt")
	}
	client = NewClient(Config{})
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error without api key")
	}
}
