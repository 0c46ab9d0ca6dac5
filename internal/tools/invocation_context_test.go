package tools

import (
	"context"
	"testing"
)

func TestInvocationContext_RoundTrip(t *testing.T) {
	ctx := WithInvocationContext(context.Background(), InvocationContext{
		Caller:    "  cli ",
		RequestID: " req-7 ",
	})

	meta := InvocationFromContext(ctx)
	if meta.Caller != "cli" {
		t.Errorf("expected trimmed caller, got %q", meta.Caller)
	}
	if meta.RequestID != "req-7" {
		t.Errorf("expected trimmed request id, got %q", meta.RequestID)
	}
}

func TestInvocationFromContext_Missing(t *testing.T) {
	meta := InvocationFromContext(context.Background())
	if meta.Caller != "" || meta.RequestID != "" {
		t.Fatalf("expected zero metadata, got %+v", meta)
	}
}
