package services

import "context"

// key is a typed context key; the zero value of T means "unset".
type key[T comparable] struct{ name string }

var (
	jobIDKey      = key[string]{"job_id"}
	stageKey      = key[string]{"stage"}
	requestIDKey  = key[string]{"request_id"}
	sceneIndexKey = key[int]{"scene_index"}
)

func (k key[T]) with(ctx context.Context, v T, ok bool) context.Context {
	if !ok {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

func (k key[T]) from(ctx context.Context) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// WithJobID annotates ctx with the render job identifier. Empty ids are ignored.
func WithJobID(ctx context.Context, id string) context.Context {
	return jobIDKey.with(ctx, id, id != "")
}

func JobIDFromContext(ctx context.Context) (string, bool) { return jobIDKey.from(ctx) }

// WithStage annotates ctx with the pipeline stage (fetch, render, store, archive).
func WithStage(ctx context.Context, stage string) context.Context {
	return stageKey.with(ctx, stage, stage != "")
}

func StageFromContext(ctx context.Context) (string, bool) { return stageKey.from(ctx) }

// WithSceneIndex annotates ctx with a zero-based scene position; negative
// positions are ignored.
func WithSceneIndex(ctx context.Context, index int) context.Context {
	return sceneIndexKey.with(ctx, index, index >= 0)
}

func SceneIndexFromContext(ctx context.Context) (int, bool) { return sceneIndexKey.from(ctx) }

// WithRequestID carries the API correlation id into background work.
func WithRequestID(ctx context.Context, id string) context.Context {
	return requestIDKey.with(ctx, id, id != "")
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return requestIDKey.from(ctx) }
