package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// Kind identifies what an artifact holds.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Folder returns the key segment objects of this kind are stored under.
func (k Kind) Folder() string {
	switch k {
	case KindImage:
		return "images"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "renders"
	default:
		return "misc"
	}
}

// backend writes one object and reports where it can be read back.
type backend interface {
	name() string
	put(ctx context.Context, key, contentType string, data []byte) (string, error)
	close() error
}

// Store uploads generated media and returns public URLs. Every failure is
// reported as services.ErrUpload.
type Store struct {
	backend    backend
	prefix     string
	publicBase string
	newID      func() string
	logger     *slog.Logger
}

// New selects the backend configured in [storage].
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "artifact", "init", "config is nil", nil)
	}
	var (
		b   backend
		err error
	)
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		b, err = newLocalBackend(cfg.Storage.LocalDir)
	case config.StorageGCS:
		b, err = newGCSBackend(ctx, cfg.Storage)
	case config.StorageS3:
		b, err = newS3Backend(cfg.Storage)
	default:
		err = fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "artifact", "init", cfg.Storage.Backend, err)
	}
	return &Store{
		backend:    b,
		prefix:     cfg.Storage.Prefix,
		publicBase: cfg.Storage.PublicBaseURL,
		newID:      uuid.NewString,
		logger:     logging.NewComponentLogger(logger, "artifact"),
	}, nil
}

// Backend names the active storage backend.
func (s *Store) Backend() string {
	if s == nil || s.backend == nil {
		return ""
	}
	return s.backend.name()
}

// Store uploads data under a fresh key for kind and returns its URL.
func (s *Store) Store(ctx context.Context, data []byte, kind Kind) (string, error) {
	if s == nil || s.backend == nil {
		return "", services.Wrap(services.ErrUpload, "artifact", "store", "store not initialized", nil)
	}
	if len(data) == 0 {
		return "", services.Wrap(services.ErrUpload, "artifact", "store", fmt.Sprintf("empty %s payload", kind), nil)
	}
	contentType := http.DetectContentType(data)
	key := s.objectKey(kind, extensionFor(kind, contentType))

	url, err := s.backend.put(ctx, key, contentType, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(err, services.ErrTimeout)
		}
		return "", services.Wrap(services.ErrUpload, "artifact", s.backend.name()+" put", key, err)
	}
	if s.publicBase != "" {
		url = s.publicBase + "/" + key
	}
	s.logger.Debug("artifact stored",
		logging.String("kind", string(kind)),
		logging.String("key", key),
		logging.Int("bytes", len(data)),
		logging.String(logging.FieldEventType, "artifact_stored"),
	)
	return url, nil
}

// Close releases backend clients.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.close()
}

func (s *Store) objectKey(kind Kind, ext string) string {
	return path.Join(s.prefix, kind.Folder(), s.newID()+ext)
}

func extensionFor(kind Kind, contentType string) string {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	case strings.HasPrefix(contentType, "audio/wave"):
		return ".wav"
	case strings.HasPrefix(contentType, "video/webm"):
		return ".mkv"
	}
	switch kind {
	case KindImage:
		return ".png"
	case KindAudio:
		return ".mp3"
	case KindVideo:
		return ".mp4"
	default:
		return ".bin"
	}
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".mp4":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}
