// Package tracing sets up OpenTelemetry tracing for the AWS SDK clients and
// the HTTP API.
package tracing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Provider owns the tracer provider used by the process.
type Provider struct {
	sdk         *sdktrace.TracerProvider
	tp          trace.TracerProvider
	propagator  propagation.TextMapPropagator
	serviceName string
}

// New creates a Provider from cfg and installs it as the global OpenTelemetry
// tracer provider. With tracing disabled it returns a no-op Provider.
func New(ctx context.Context, cfg *Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{
			tp:          noop.NewTracerProvider(),
			propagator:  propagation.TraceContext{},
			serviceName: cfg.ServiceName,
		}, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := newProvider(cfg, sdktrace.WithBatcher(exporter))

	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(p.propagator)

	return p, nil
}

func newProvider(cfg *Config, opts ...sdktrace.TracerProviderOption) *Provider {
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	}, opts...)

	sdk := sdktrace.NewTracerProvider(opts...)

	return &Provider{
		sdk:         sdk,
		tp:          sdk,
		propagator:  propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		serviceName: cfg.ServiceName,
	}
}

func newExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterOTLP:
		var opts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		}

		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

		return exporter, nil

	case ExporterZipkin:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:9411/api/v2/spans"
		}

		exporter, err := zipkin.New(endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create Zipkin exporter: %w", err)
		}

		return exporter, nil

	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// TracerProvider returns the underlying tracer provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tp
}

// InstrumentAWS adds a span around every AWS API call made by clients built
// from cfg. It does nothing when tracing is disabled.
func (p *Provider) InstrumentAWS(cfg *aws.Config) {
	if !p.Enabled() {
		return
	}

	otelaws.AppendMiddlewares(&cfg.APIOptions, otelaws.WithTracerProvider(p.tp))
}

// Middleware returns gin middleware that starts a server span per request and
// continues traces propagated by the caller.
func (p *Provider) Middleware() gin.HandlerFunc {
	return otelgin.Middleware(p.serviceName,
		otelgin.WithTracerProvider(p.tp),
		otelgin.WithPropagators(p.propagator),
	)
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}

	return p.sdk.Shutdown(ctx)
}
