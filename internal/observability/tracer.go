package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace/noop"
)

// flushTimeout bounds how long process exit waits for the collector
const flushTimeout = 3 * time.Second

// TracerConfig holds configuration for OpenTelemetry tracer
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	InstanceID     string // run id; ties spans to the progress rows of the same run
	Endpoint       string // OTLP host:port; empty uses the protocol's default port on localhost
	Protocol       string // "grpc" or "http"
	Enabled        bool
}

// traceClients maps a protocol to its default endpoint and client constructor
var traceClients = map[string]struct {
	endpoint string
	build    func(endpoint string) otlptrace.Client
}{
	"grpc": {
		endpoint: "localhost:4317",
		build: func(endpoint string) otlptrace.Client {
			return otlptracegrpc.NewClient(
				otlptracegrpc.WithEndpoint(endpoint),
				otlptracegrpc.WithInsecure(),
			)
		},
	},
	"http": {
		endpoint: "localhost:4318",
		build: func(endpoint string) otlptrace.Client {
			return otlptracehttp.NewClient(
				otlptracehttp.WithEndpoint(endpoint),
				otlptracehttp.WithInsecure(),
			)
		},
	},
}

// newTraceClient returns the OTLP client for protocol and the endpoint it targets
func newTraceClient(protocol, endpoint string) (otlptrace.Client, string, error) {
	c, ok := traceClients[protocol]
	if !ok {
		return nil, "", fmt.Errorf("unsupported protocol: %s (use 'grpc' or 'http')", protocol)
	}
	if endpoint == "" {
		endpoint = c.endpoint
	}
	return c.build(endpoint), endpoint, nil
}

// InitTracer installs the global tracer provider for a single run.
// When tracing is disabled a no-op provider is installed and the returned
// shutdown func does nothing. Otherwise spans are exported when the run
// ends, through the shutdown func.
func InitTracer(cfg TracerConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	client, endpoint, err := newTraceClient(cfg.Protocol, cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
	}
	if cfg.InstanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceIDKey.String(cfg.InstanceID))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(attrs...),
		resource.WithFromEnv(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Exporter connects lazily, so an absent collector never blocks the run
	exporter, err := otlptrace.New(context.Background(), client)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter for %s: %w", endpoint, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, flushTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to flush spans to %s: %w", endpoint, err)
		}
		return nil
	}, nil
}
