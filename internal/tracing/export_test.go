package tracing

import sdktrace "go.opentelemetry.io/otel/sdk/trace"

// NewWithSpanProcessor builds an enabled Provider that hands spans to sp
// instead of an exporter.
func NewWithSpanProcessor(cfg *Config, sp sdktrace.SpanProcessor) *Provider {
	return newProvider(cfg, sdktrace.WithSpanProcessor(sp))
}
