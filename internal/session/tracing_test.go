package session

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOperationsAreTraced(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	f := newFixture(t, WithTracer(tp.Tracer("test")))

	created := f.create(t, threeRounds())
	if _, err := f.c.Start(context.Background(), created.ID, created.ModifySecret); !errors.Is(err, ErrInsufficientPlayers) {
		t.Fatalf("Start: err = %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].Name() != "session.Create" || spans[1].Name() != "session.Start" {
		t.Errorf("names = %s, %s", spans[0].Name(), spans[1].Name())
	}

	start := spans[1]
	if start.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", start.Status().Code)
	}
	var found bool
	for _, kv := range start.Attributes() {
		if kv.Key == "session.id" && kv.Value.AsString() == created.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("session.id attribute missing: %v", start.Attributes())
	}
}
