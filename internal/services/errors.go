package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure markers. Every error that leaves a pipeline component carries exactly
// one of the first four so callers can classify it with errors.Is.
var (
	ErrAssetGeneration = errors.New("asset generation error")
	ErrUpload          = errors.New("upload error")
	ErrComposition     = errors.New("composition error")
	ErrPersistence     = errors.New("persistence error")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrBusy          = errors.New("capacity exhausted")
)

// Error kinds recorded alongside failed jobs.
const (
	KindAssetGeneration = "asset_generation"
	KindUpload          = "upload"
	KindComposition     = "composition"
	KindPersistence     = "persistence"
	KindValidation      = "validation"
	KindConfiguration   = "configuration"
	KindNotFound        = "not_found"
	KindTimeout         = "timeout"
	KindBusy            = "busy"
	KindUnknown         = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrComposition
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to the short label persisted with failed jobs.
// Pipeline markers win over secondary markers such as ErrTimeout.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAssetGeneration):
		return KindAssetGeneration
	case errors.Is(err, ErrUpload):
		return KindUpload
	case errors.Is(err, ErrComposition):
		return KindComposition
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	default:
		return KindUnknown
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
