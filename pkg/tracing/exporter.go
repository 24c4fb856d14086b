package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ExporterConfig selects where spans go. An empty Endpoint disables export
// entirely so local runs and tests pay nothing for tracing.
type ExporterConfig struct {
	// Endpoint is the OTLP collector address, e.g. "localhost:4317" for
	// grpc or "localhost:4318" for http.
	Endpoint string
	// Protocol is "grpc" or "http".
	Protocol string
	// Insecure disables TLS.
	Insecure bool
	// Headers are sent with every export request.
	Headers map[string]string
	// Timeout bounds a single export call. Zero means 10s.
	Timeout time.Duration
}

func newExporter(ctx context.Context, cfg ExporterConfig) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		return noopExporter{}, nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	switch cfg.Protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithTimeout(cfg.Timeout),
		}
		if cfg.Insecure {
			opts = append(opts,
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
				otlptracegrpc.WithInsecure(),
			)
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithTimeout(cfg.Timeout),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s (use 'grpc' or 'http')", cfg.Protocol)
	}
}

// noopExporter drops spans. Used when no collector endpoint is configured.
type noopExporter struct{}

func (noopExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error { return nil }
func (noopExporter) Shutdown(ctx context.Context) error                                   { return nil }
