package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Minimal file signatures so sniffers treat fixtures as the right media type.
var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	mp3Signature = []byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

// MediaPair is one scene's image and narration fixture on disk.
type MediaPair struct {
	Image string
	Audio string
}

// WriteMediaPairs creates n image/audio fixture pairs under dir named
// image-<i>.png and audio-<i>.mp3.
func WriteMediaPairs(t testing.TB, dir string, n int) []MediaPair {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	pairs := make([]MediaPair, n)
	for i := range pairs {
		pairs[i] = MediaPair{
			Image: filepath.Join(dir, fmt.Sprintf("image-%d.png", i)),
			Audio: filepath.Join(dir, fmt.Sprintf("audio-%d.mp3", i)),
		}
		writeFixture(t, pairs[i].Image, pngSignature)
		writeFixture(t, pairs[i].Audio, mp3Signature)
	}
	return pairs
}

// MakeAgedDir creates base/name and backdates its modification time by age.
func MakeAgedDir(t testing.TB, base, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(base, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
	return path
}

func writeFixture(t testing.TB, path string, header []byte) {
	t.Helper()
	data := append(append([]byte(nil), header...), []byte("reelforge fixture")...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
