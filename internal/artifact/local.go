package artifact

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type localBackend struct {
	root string
}

func newLocalBackend(root string) (*localBackend, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local_dir is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve local_dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create local_dir: %w", err)
	}
	return &localBackend{root: abs}, nil
}

func (b *localBackend) name() string { return "local" }

func (b *localBackend) put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(b.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	tmp := target + ".partial"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String(), nil
}

func (b *localBackend) close() error { return nil }
