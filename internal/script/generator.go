package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/scene"
	"reelforge/internal/services"
	"reelforge/internal/services/llm"
)

const (
	stage            = "script"
	maxConceptLength = 1000
)

// Completer is the chat completion surface the generator depends on.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator drafts scripts from concepts.
type Generator struct {
	client  Completer
	timeout time.Duration
	logger  *slog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithTimeout bounds each completion request.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator wraps client. A nil client yields a generator that reports a
// configuration error on every call.
func NewGenerator(client Completer, opts ...Option) *Generator {
	g := &Generator{client: client, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.NewComponentLogger(g.logger, "script")
	return g
}

// Generate asks the model for a script about concept and validates it with
// the same rules applied to submitted jobs.
func (g *Generator) Generate(ctx context.Context, concept string) (scene.Script, error) {
	concept = strings.Join(strings.Fields(concept), " ")
	if concept == "" {
		return scene.Script{}, services.Wrap(services.ErrValidation, stage, "generate", "concept is required", nil)
	}
	if len(concept) > maxConceptLength {
		return scene.Script{}, services.Wrap(services.ErrValidation, stage, "generate",
			fmt.Sprintf("concept exceeds %d characters", maxConceptLength), nil)
	}
	if g == nil || g.client == nil {
		return scene.Script{}, services.Wrap(services.ErrConfiguration, stage, "generate", "llm client not configured", nil)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	logger := logging.WithContext(ctx, g.logger)
	started := time.Now()

	content, err := g.client.CompleteJSON(callCtx, SystemPrompt, fmt.Sprintf("Concept: %q", concept))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(err, services.ErrTimeout)
		}
		return scene.Script{}, services.Wrap(services.ErrAssetGeneration, stage, "complete", "script request failed", err)
	}

	var draft scene.Script
	if err := llm.DecodeJSON(content, &draft); err != nil {
		logger.Warn("script response was not valid json",
			logging.String(logging.FieldEventType, "script_parse_failed"),
			logging.String(logging.FieldErrorHint, "retry or choose a different llm.model"),
			logging.String("raw", truncate(content, 300)),
		)
		return scene.Script{}, services.Wrap(services.ErrAssetGeneration, stage, "decode", "failed to parse script", err)
	}
	renumber(draft.Scenes)
	if err := scene.Validate(&draft); err != nil {
		return scene.Script{}, err
	}
	logger.Info("script generated",
		logging.String(logging.FieldEventType, "script_generated"),
		logging.String("title", draft.Title),
		logging.Int("scenes", len(draft.Scenes)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return draft, nil
}

// renumber fills missing segment ids from scene order.
func renumber(scenes []scene.Scene) {
	for i := range scenes {
		if scenes[i].SegmentID <= 0 {
			scenes[i].SegmentID = i + 1
		}
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
