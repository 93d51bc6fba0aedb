package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"reelforge/internal/config"
)

type gcsBackend struct {
	client *storage.Client
	bucket string
}

func newGCSBackend(ctx context.Context, cfg config.Storage) (*gcsBackend, error) {
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("gcs_bucket is empty")
	}
	client, err := storage.NewClient(ctx, gcsClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &gcsBackend{client: client, bucket: cfg.GCSBucket}, nil
}

func gcsClientOptions(cfg config.Storage) []option.ClientOption {
	opts := []option.ClientOption{}
	if host := strings.TrimSpace(cfg.GCSEmulatorHost); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		return append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(strings.TrimRight(host, "/")+"/storage/v1/"),
		)
	}
	if creds := strings.TrimSpace(cfg.GCSCredentials); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return append(opts, option.WithScopes(storage.ScopeReadWrite))
}

func (b *gcsBackend) name() string { return "gcs" }

func (b *gcsBackend) put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeForKey(key)
	if contentType != "" && !strings.HasPrefix(contentType, "application/octet-stream") && !strings.HasPrefix(contentType, "text/") {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close GCS writer: %w", err)
	}
	return gcsPublicURL(b.bucket, key), nil
}

func gcsPublicURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

func (b *gcsBackend) close() error {
	return b.client.Close()
}
