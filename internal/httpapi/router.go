// Package httpapi exposes the to-do operations over HTTP.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slackmgr/todos/internal/auth"
	"github.com/slackmgr/todos/internal/metrics"
	"github.com/slackmgr/todos/internal/tracing"
)

// Option is a functional option for [NewRouter].
type Option func(*options)

type options struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	tracing  *tracing.Provider
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records request metrics with m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(o *options) {
		o.metrics = m
		o.gatherer = gatherer
	}
}

// WithTracing starts a span for every request when p has tracing enabled.
func WithTracing(p *tracing.Provider) Option {
	return func(o *options) {
		o.tracing = p
	}
}

// NewRouter builds the gin engine. Item routes require a bearer token checked
// by verifier; /healthz and /metrics do not.
func NewRouter(svc Service, verifier *auth.Verifier, opts ...Option) (*gin.Engine, error) {
	if svc == nil {
		return nil, errors.New("service cannot be nil")
	}

	if verifier == nil {
		return nil, errors.New("verifier cannot be nil")
	}

	o := &options{logger: slog.New(slog.DiscardHandler)}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if o.metrics != nil && o.gatherer == nil {
		return nil, errors.New("metrics gatherer cannot be nil")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if o.tracing != nil && o.tracing.Enabled() {
		engine.Use(o.tracing.Middleware())
	}

	if o.metrics != nil {
		engine.Use(o.metrics.Middleware())
	}

	engine.Use(cors.New(corsConfig()))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if o.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	}

	NewHandler(svc, o.logger).Register(engine.Group("", verifier.Middleware()))

	return engine, nil
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOriginFunc = func(string) bool { return true }
	cfg.AllowCredentials = true
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}

	return cfg
}
