package storage

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("storefront-storage")

// Traced wraps a Backend with a span per call.
type Traced struct {
	Backend
	kind string
}

// NewTraced wraps b so every call gets a span.
func NewTraced(b Backend, kind string) *Traced {
	return &Traced{Backend: b, kind: kind}
}

func (t *Traced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "storage.Get", t.attrs(key))
	defer span.End()

	val, ok, err := t.Backend.Get(ctx, key)
	if err != nil {
		recordError(span, err)
		return nil, false, err
	}
	span.SetAttributes(
		attribute.Bool("slot.found", ok),
		attribute.Int("slot.size", len(val)),
	)
	return val, ok, nil
}

func (t *Traced) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "storage.Set", t.attrs(key))
	defer span.End()

	span.SetAttributes(attribute.Int("slot.size", len(value)))
	if err := t.Backend.Set(ctx, key, value); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (t *Traced) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "storage.Delete", t.attrs(key))
	defer span.End()

	if err := t.Backend.Delete(ctx, key); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (t *Traced) attrs(key string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("storage.backend", t.kind),
		attribute.String("slot.key", key),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
