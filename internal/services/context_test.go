package services_test

import (
	"context"
	"testing"

	"reelforge/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "req-123")
	ctx = services.WithJobID(ctx, "job-42")
	ctx = services.WithStage(ctx, "render")
	ctx = services.WithSceneIndex(ctx, 0)

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-42" {
		t.Fatalf("job id = %q, %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "render" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if idx, ok := services.SceneIndexFromContext(ctx); !ok || idx != 0 {
		t.Fatalf("scene index = %d, %v", idx, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}
}

func TestContextKeysDoNotCollide(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "render")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("job id leaked into stage")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("job id leaked into request id")
	}
}

func TestInvalidValuesAreIgnored(t *testing.T) {
	base := services.WithStage(context.Background(), "fetch")
	ctx := services.WithStage(base, "")
	ctx = services.WithJobID(ctx, "")
	ctx = services.WithSceneIndex(ctx, -1)

	if stage, _ := services.StageFromContext(ctx); stage != "fetch" {
		t.Fatalf("blank stage overwrote %q", stage)
	}
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id")
	}
	if _, ok := services.SceneIndexFromContext(ctx); ok {
		t.Fatal("expected no scene index")
	}
}
