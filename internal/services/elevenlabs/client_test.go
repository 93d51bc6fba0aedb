package elevenlabs

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

func TestGenerateSendsVoiceSettings(t *testing.T) {
	var got speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if key := r.Header.Get("xi-api-key"); key != "el-test" {
			t.Errorf("unexpected api key header %q", key)
		}
		if accept := r.Header.Get("Accept"); accept != "audio/mpeg" {
			t.Errorf("unexpected accept header %q", accept)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3mp3data"))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:          "el-test",
		BaseURL:         server.URL,
		VoiceID:         "voice-1",
		Stability:       0.4,
		SimilarityBoost: 0.9,
	})
	audio, err := client.Generate(context.Background(), "The tide rolls in.")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if string(audio) != "ID3mp3data" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if got.Text != "The tide rolls in." || got.ModelID != defaultModelID {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.VoiceSettings.Stability != 0.4 || got.VoiceSettings.SimilarityBoost != 0.9 {
		t.Fatalf("unexpected voice settings %+v", got.VoiceSettings)
	}
}

func TestGenerateSurfacesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "el", BaseURL: server.URL},
		WithRetryPolicy(httpretry.Policy{MaxAttempts: 3, Sleeper: func(time.Duration) {}}))
	_, err := client.Generate(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestGenerateHonorsContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	client := NewClient(Config{APIKey: "el", BaseURL: server.URL})
	if _, err := client.Generate(ctx, "hello"); err == nil {
		t.Fatal("expected deadline error")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{APIKey: "el"})
	if client.cfg.BaseURL != defaultBaseURL || client.cfg.VoiceID != defaultVoiceID || client.cfg.ModelID != defaultModelID {
		t.Fatalf("unexpected defaults %+v", client.cfg)
	}
}
