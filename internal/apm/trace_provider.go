// Package apm wires OpenTelemetry tracing for the scanner.
package apm

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/arbitrage-scanner/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "console"
	OTLPGRPCProvider Provider = "otlp"
	OTLPHTTPProvider Provider = "otlp_http"
	EmptyProvider    Provider = "none"
)

// ParseProvider maps a config value to a Provider; unknown values disable tracing.
func ParseProvider(s string) Provider {
	switch p := Provider(strings.ToLower(s)); p {
	case ZipkinProvider, ConsoleProvider, OTLPGRPCProvider, OTLPHTTPProvider:
		return p
	default:
		return EmptyProvider
	}
}

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

type TracerOptions struct {
	provider    Provider
	endpoint    string
	headers     map[string]string
	serviceName string
}

type TracerOption func(*TracerOptions)

func WithProvider(provider Provider) TracerOption {
	return func(o *TracerOptions) {
		o.provider = provider
	}
}

func WithEndpoint(endpoint string) TracerOption {
	return func(o *TracerOptions) {
		o.endpoint = endpoint
	}
}

// WithHeaders parses "k1=v1,k2=v2" exporter headers.
func WithHeaders(raw string) TracerOption {
	return func(o *TracerOptions) {
		if raw == "" {
			return
		}
		o.headers = make(map[string]string)
		for _, pair := range strings.Split(raw, ",") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) == 2 {
				o.headers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
	}
}

func WithServiceName(name string) TracerOption {
	return func(o *TracerOptions) {
		o.serviceName = name
	}
}

func newExporter(opts *TracerOptions) (sdktrace.SpanExporter, error) {
	ctx := context.Background()
	switch opts.provider {
	case ZipkinProvider:
		return zipkin.New(opts.endpoint)
	case OTLPGRPCProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(opts.endpoint),
			otlptracegrpc.WithHeaders(opts.headers),
		)
	case OTLPHTTPProvider:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(opts.endpoint),
			otlptracehttp.WithHeaders(opts.headers),
		)
	default:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
}

// NewTraceProvider installs the global tracer provider. Exporter setup
// failures are logged and leave tracing disabled; they never stop the scanner.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	opts := &TracerOptions{provider: EmptyProvider, serviceName: "arbitrage-scanner"}
	for _, opt := range options {
		opt(opts)
	}

	if opts.provider == EmptyProvider {
		return emptyTraceProvider{}
	}

	exp, err := newExporter(opts)
	if err != nil {
		log.Error(context.Background(), "trace exporter init failed, tracing disabled",
			"provider", string(opts.provider), "error", err)
		return emptyTraceProvider{}
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.serviceName),
			attribute.String("otel.provider", string(opts.provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(context.Background(), "tracing enabled", "provider", string(opts.provider), "endpoint", opts.endpoint)

	return &traceProvider{tp}
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
