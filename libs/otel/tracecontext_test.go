package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextRoundTrip(t *testing.T) {
	if _, err := Setup(context.Background(), Config{Enabled: false}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := ContextWithTraceContext(context.Background(), parent, "")
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected remote span context, got %+v", sc)
	}

	tp, _ := TraceContextStrings(ctx)
	if tp != parent {
		t.Fatalf("expected %q, got %q", parent, tp)
	}
}

func TestContextWithoutTraceparentIsUnchanged(t *testing.T) {
	ctx := context.Background()
	if got := ContextWithTraceContext(ctx, "", "vendor=1"); got != ctx {
		t.Fatalf("expected the same context back")
	}
}
