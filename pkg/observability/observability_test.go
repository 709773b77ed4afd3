package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	setTracer(tp.Tracer("test"))
	t.Cleanup(func() { setTracer(nil) })
	return rec
}

func TestTraceRecordsSpan(t *testing.T) {
	rec := withRecorder(t)

	err := Trace(context.Background(), "premise.validate", map[string]interface{}{
		"node":         "orders",
		"failed_count": 3,
	}, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "premise.validate", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Len(t, spans[0].Attributes(), 2)
}

func TestTraceRecordsError(t *testing.T) {
	rec := withRecorder(t)

	boom := errors.New("query failed")
	err := Trace(context.Background(), "connector.run", nil, func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "query failed", spans[0].Status().Description)
}

func TestInitializeDisabledIsNoop(t *testing.T) {
	assert.NoError(t, Initialize(TracingConfig{}))
	assert.NotNil(t, GetTracer())
}

func TestSpanAttributeTypes(t *testing.T) {
	rec := withRecorder(t)

	_, span := NewSpan(context.Background(), "attrs")
	span.SetAttribute("s", "x")
	span.SetAttribute("i", 1)
	span.SetAttribute("i64", int64(2))
	span.SetAttribute("f", 1.5)
	span.SetAttribute("b", true)
	span.SetAttribute("other", []int{1})
	span.End()

	require.Len(t, rec.Ended(), 1)
	assert.Len(t, rec.Ended()[0].Attributes(), 6)
}
