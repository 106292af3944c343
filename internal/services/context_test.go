package services_test

import (
	"context"
	"testing"

	"scholarcast/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPaperID(ctx, "2301.00001")
	ctx = services.WithStage(ctx, "speech")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.PaperIDFromContext(ctx); !ok || id != "2301.00001" {
		t.Fatalf("unexpected paper id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "speech" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
