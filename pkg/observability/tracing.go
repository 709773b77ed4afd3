// Package observability provides OpenTelemetry tracing for premise validation runs
package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/penguin"

var (
	tracer   trace.Tracer
	tracerMu sync.RWMutex
	initOnce sync.Once
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	ServiceName    string        `mapstructure:"service_name" yaml:"service_name"`
	ServiceVersion string        `mapstructure:"service_version" yaml:"service_version"`
	Environment    string        `mapstructure:"environment" yaml:"environment"`
	SamplingRate   float64       `mapstructure:"sampling_rate" yaml:"sampling_rate"`
	ExporterType   string        `mapstructure:"exporter" yaml:"exporter"` // "stdout"
	BatchTimeout   time.Duration `mapstructure:"batch_timeout" yaml:"batch_timeout"`
	MaxExportBatch int           `mapstructure:"max_export_batch" yaml:"max_export_batch"`
	MaxQueueSize   int           `mapstructure:"max_queue_size" yaml:"max_queue_size"`
}

// Initialize installs the global tracer provider once. A disabled config is a no-op.
func Initialize(config TracingConfig) error {
	if !config.Enabled {
		return nil
	}

	var err error
	initOnce.Do(func() {
		err = initTracing(config)
		if err != nil {
			return
		}

		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	})
	return err
}

// GetTracer returns the configured tracer, falling back to the global provider.
func GetTracer() trace.Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return tracer
}

func setTracer(t trace.Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	tracer = t
}

// Span wraps a trace span and batches attributes until End.
type Span struct {
	span       trace.Span
	attributes []attribute.KeyValue
}

// NewSpan starts a span named operationName.
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := GetTracer().Start(ctx, operationName)
	return ctx, &Span{span: span}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// RecordError marks the span as failed.
func (s *Span) RecordError(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End flushes attributes and ends the span.
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// Trace runs fn inside a span named operation carrying attrs, recording its error.
func Trace(ctx context.Context, operation string, attrs map[string]interface{}, fn func(ctx context.Context) error) error {
	ctx, span := NewSpan(ctx, operation)
	defer span.End()

	for k, v := range attrs {
		span.SetAttribute(k, v)
	}

	err := fn(ctx)
	span.RecordError(err)
	return err
}
