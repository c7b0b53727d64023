package tracing_test

import (
	"context"
	"testing"

	"github.com/playperu/geoparty/internal/tracing"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := tracing.Setup(context.Background(), "geoparty", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetupWithEndpoint(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := tracing.Setup(context.Background(), "geoparty", "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
