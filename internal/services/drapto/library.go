package drapto

import (
	"context"
	"fmt"
	"os"
	"strings"

	draptolib "github.com/five82/drapto"
)

// Library encodes in-process through the drapto Go module.
type Library struct{}

func NewLibrary() *Library { return &Library{} }

// Encode writes an AV1 encode of inputPath into outputDir and returns the
// file's path (see OutputPath). progress may be nil.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (string, error) {
	if err := checkEncodeArgs(inputPath, outputDir); err != nil {
		return "", err
	}
	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", fmt.Errorf("drapto init: %w", err)
	}
	var reporter draptolib.Reporter
	if progress != nil {
		reporter = newProgressReporter(progress)
	}
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, reporter); err != nil {
		return "", fmt.Errorf("drapto encode %s: %w", inputPath, err)
	}
	return OutputPath(inputPath, outputDir), nil
}

// checkEncodeArgs requires an existing regular input file and creates
// outputDir when missing.
func checkEncodeArgs(inputPath, outputDir string) error {
	if strings.TrimSpace(inputPath) == "" {
		return fmt.Errorf("drapto: input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return fmt.Errorf("drapto: output directory required")
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("drapto: input: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("drapto: input %s is not a regular file", inputPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("drapto: output directory: %w", err)
	}
	return nil
}

var _ Client = (*Library)(nil)
