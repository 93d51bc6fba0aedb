package artifact

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"reelforge/internal/config"
)

type s3Backend struct {
	svc      *s3.S3
	bucket   string
	endpoint string
}

func newS3Backend(cfg config.Storage) (*s3Backend, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3_bucket is empty")
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.S3Region)}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &s3Backend{svc: s3.New(sess), bucket: cfg.S3Bucket, endpoint: cfg.S3Endpoint}, nil
}

func (b *s3Backend) name() string { return "s3" }

func (b *s3Backend) put(ctx context.Context, key, _ string, data []byte) (string, error) {
	_, err := b.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeForKey(key)),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s3PublicURL(b.endpoint, b.bucket, key), nil
}

func s3PublicURL(endpoint, bucket, key string) string {
	if endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(endpoint, "/"), bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
}

func (b *s3Backend) close() error { return nil }
