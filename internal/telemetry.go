package internal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "ringq"

// Telemetry bundles the logger, tracer and meter of a single component.
type Telemetry struct {
	kind string
	name string

	l *Logger

	tracer trace.Tracer
	meter  metric.Meter
}

// NewTelemetry returns a telemetry bundle bound to the global otel providers.
func NewTelemetry(kind, name string) *Telemetry {
	return NewTelemetryWithLogger(kind, name, NewLogger(kind, name))
}

// NewTelemetryWithLogger is like NewTelemetry but uses the given logger.
func NewTelemetryWithLogger(kind, name string, l *Logger) *Telemetry {
	return &Telemetry{
		kind: kind,
		name: name,

		l: l,

		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
		meter:  otel.GetMeterProvider().Meter(instrumentationName),
	}
}

func (t *Telemetry) Logger() *Logger {
	return t.l
}

func (t *Telemetry) LogDebug(msg string, args ...any) {
	t.l.Debug(msg, args...)
}

func (t *Telemetry) LogInfo(msg string, args ...any) {
	t.l.Info(msg, args...)
}

func (t *Telemetry) LogWarn(msg string, args ...any) {
	t.l.Warn(msg, args...)
}

func (t *Telemetry) LogError(msg string, err error, args ...any) {
	t.l.Error(msg, err, args...)
}

func (t *Telemetry) setDefaultAttributes(span trace.Span) {
	span.SetAttributes(
		attribute.String("ringq.kind", t.kind),
		attribute.String("ringq.name", t.name),
	)
}

// NewTrace starts a span tagged with the component kind and name.
func (t *Telemetry) NewTrace(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, spanName, opts...)
	t.setDefaultAttributes(span)
	return ctx, span
}

func (t *Telemetry) getMeterName(name string) string {
	return fmt.Sprintf("%s_%s_%s", t.kind, t.name, name)
}

func (t *Telemetry) NewCounter(name string, opts ...metric.Int64CounterOption) metric.Int64Counter {
	counterName := t.getMeterName(name)
	counter, err := t.meter.Int64Counter(counterName, opts...)
	if err != nil {
		t.LogError("failed to create counter", err, "name", name)
	}

	t.LogDebug("created counter", "name", counterName)

	return counter
}

func (t *Telemetry) NewUpDownCounter(name string, opts ...metric.Int64UpDownCounterOption) metric.Int64UpDownCounter {
	counterName := t.getMeterName(name)
	counter, err := t.meter.Int64UpDownCounter(counterName, opts...)
	if err != nil {
		t.LogError("failed to create up/down counter", err, "name", name)
	}

	t.LogDebug("created up/down counter", "name", counterName)

	return counter
}
