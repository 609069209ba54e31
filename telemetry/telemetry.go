// Package telemetry installs OTLP trace and metric providers as the global
// otel providers used by the ringq components.
package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects where and how often telemetry is exported.
// Empty endpoints fall back to the OTEL_EXPORTER_OTLP_* environment.
type Config struct {
	ServiceName    string
	ServiceVersion string

	TraceEndpoint  string
	MetricEndpoint string

	TraceSampleRatio float64
	MetricInterval   time.Duration
}

func NewDefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",

		TraceSampleRatio: 0.05,
		MetricInterval:   time.Second,
	}
}

// Providers holds the installed providers so that they can be shut down.
type Providers struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Init creates the exporters and installs the providers globally.
func Init(ctx context.Context, cfg *Config) (*Providers, error) {
	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	traceExporter, err := newTraceExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tracerProvider := newTraceProvider(res, traceExporter, cfg.TraceSampleRatio)
	otel.SetTracerProvider(tracerProvider)

	otel.SetTextMapPropagator(propagation.TraceContext{})

	metricExporter, err := newMetricExporter(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, tracerProvider.Shutdown(ctx))
	}
	meterProvider := newMeterProvider(res, metricExporter, cfg.MetricInterval)
	otel.SetMeterProvider(meterProvider)

	return &Providers{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}, nil
}

// Close flushes and stops both providers.
func (p *Providers) Close(ctx context.Context) error {
	return errors.Join(
		p.tracerProvider.Shutdown(ctx),
		p.meterProvider.Shutdown(ctx),
	)
}

func newResource(cfg *Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
}

func newTraceExporter(ctx context.Context, cfg *Config) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
	if cfg.TraceEndpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(cfg.TraceEndpoint))
	}
	return otlptracegrpc.New(ctx, opts...)
}

func newTraceProvider(res *resource.Resource, exporter sdktrace.SpanExporter, ratio float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(ratio)),
	)
}

func newMetricExporter(ctx context.Context, cfg *Config) (*otlpmetrichttp.Exporter, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
	if cfg.MetricEndpoint != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.MetricEndpoint))
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func newMeterProvider(res *resource.Resource, exporter sdkmetric.Exporter, interval time.Duration) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)),
		),
	)
}
