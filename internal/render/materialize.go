package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"reelforge/internal/services/httpretry"
	"reelforge/internal/timeline"
)

const maxParallelDownloads = 4

// materialize resolves every entry's media to a local path, downloading remote
// references into dir.
func materialize(ctx context.Context, client *http.Client, spec timeline.RenderSpec, dir string) ([]Input, error) {
	inputs := make([]Input, len(spec.Entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)
	for i, entry := range spec.Entries {
		g.Go(func() error {
			image, err := localize(gctx, client, entry.VisualRef, dir, fmt.Sprintf("scene-%03d-image", i))
			if err != nil {
				return fmt.Errorf("scene %d image: %w", i, err)
			}
			inputs[i].Image = image
			return nil
		})
		g.Go(func() error {
			audio, err := localize(gctx, client, entry.AudioRef, dir, fmt.Sprintf("scene-%03d-audio", i))
			if err != nil {
				return fmt.Errorf("scene %d audio: %w", i, err)
			}
			inputs[i].Audio = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func localize(ctx context.Context, client *http.Client, ref, dir, name string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty media reference")
	}
	parsed, err := url.Parse(ref)
	if err == nil {
		switch parsed.Scheme {
		case "http", "https":
			return download(ctx, client, ref, filepath.Join(dir, name+path.Ext(parsed.Path)))
		case "file":
			return checkLocal(parsed.Path)
		}
	}
	return checkLocal(ref)
}

func checkLocal(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("media not found: %w", err)
	}
	if info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("media %s is empty or a directory", p)
	}
	return p, nil
}

func download(ctx context.Context, client *http.Client, ref, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", httpretry.NewStatusError("download "+ref, resp, body)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		return "", fmt.Errorf("write %s: %w", target, copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("close %s: %w", target, closeErr)
	}
	if written == 0 {
		return "", fmt.Errorf("download %s: empty body", ref)
	}
	return target, nil
}
