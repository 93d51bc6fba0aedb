package artifact

import (
	"testing"

	"reelforge/internal/config"
)

func TestObjectKeyLayout(t *testing.T) {
	s := &Store{prefix: "reelforge", newID: func() string { return "fixed" }}
	tests := []struct {
		kind Kind
		ext  string
		want string
	}{
		{KindImage, ".png", "reelforge/images/fixed.png"},
		{KindAudio, ".mp3", "reelforge/audio/fixed.mp3"},
		{KindVideo, ".mp4", "reelforge/renders/fixed.mp4"},
	}
	for _, tt := range tests {
		if got := s.objectKey(tt.kind, tt.ext); got != tt.want {
			t.Fatalf("objectKey(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
	s.prefix = ""
	if got := s.objectKey(KindVideo, ".mp4"); got != "renders/fixed.mp4" {
		t.Fatalf("unexpected unprefixed key %q", got)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		kind        Kind
		contentType string
		want        string
	}{
		{KindImage, "image/jpeg", ".jpg"},
		{KindImage, "application/octet-stream", ".png"},
		{KindAudio, "audio/mpeg", ".mp3"},
		{KindAudio, "audio/wave", ".wav"},
		{KindVideo, "video/webm", ".mkv"},
		{KindVideo, "video/mp4", ".mp4"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.kind, tt.contentType); got != tt.want {
			t.Fatalf("extensionFor(%s, %s) = %q, want %q", tt.kind, tt.contentType, got, tt.want)
		}
	}
}

func TestPublicURLs(t *testing.T) {
	if got := gcsPublicURL("reels", "a/b.png"); got != "https://storage.googleapis.com/reels/a/b.png" {
		t.Fatalf("unexpected gcs url %q", got)
	}
	if got := s3PublicURL("", "reels", "a/b.png"); got != "https://reels.s3.amazonaws.com/a/b.png" {
		t.Fatalf("unexpected s3 url %q", got)
	}
	if got := s3PublicURL("http://minio:9000/", "reels", "a/b.png"); got != "http://minio:9000/reels/a/b.png" {
		t.Fatalf("unexpected endpoint url %q", got)
	}
}

func TestGCSClientOptionsForEmulator(t *testing.T) {
	opts := gcsClientOptions(config.Storage{GCSEmulatorHost: "localhost:4443"})
	if len(opts) != 2 {
		t.Fatalf("expected emulator options without auth, got %d", len(opts))
	}
	opts = gcsClientOptions(config.Storage{GCSCredentials: "/tmp/creds.json"})
	if len(opts) != 2 {
		t.Fatalf("expected credentials and scope options, got %d", len(opts))
	}
}
