package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/slackmgr/todos"
	"github.com/slackmgr/todos/internal/auth"
	"github.com/slackmgr/todos/internal/httpapi"
	"github.com/slackmgr/todos/internal/metrics"
	"github.com/slackmgr/todos/s3"
	"github.com/slackmgr/todos/sqs"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	rt, err := newRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	cfg := rt.cfg
	logger := rt.logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	awsCfg, err := rt.awsConfig(ctx)
	if err != nil {
		return err
	}

	issuer := s3.New(awsCfg, s3.WithLogger(logger))
	if err := issuer.Connect(); err != nil {
		return err
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	svcOpts := []todos.ServiceOption{
		todos.WithUploadURLTTL(cfg.Attachments.URLExpirationDuration()),
		todos.WithServiceLogger(logger),
	}

	if cfg.Events.QueueName != "" {
		publisher, err := sqs.New(awsCfg, cfg.Events.QueueName, logger).Init(ctx)
		if err != nil {
			return err
		}

		svcOpts = append(svcOpts, todos.WithPublisher(publisher))
	} else {
		logger.Info("No event queue configured, item events are not published")
	}

	svc, err := todos.NewService(m.InstrumentStore(store), issuer, cfg.Attachments.Bucket, svcOpts...)
	if err != nil {
		return err
	}

	verifier := auth.NewVerifier(cfg.Server.JWTSecret)
	if !verifier.Verifies() {
		logger.Warn("No JWT secret configured, bearer tokens are trusted without signature verification")
	}

	gin.SetMode(gin.ReleaseMode)

	router, err := httpapi.NewRouter(svc, verifier,
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(m, prometheus.DefaultGatherer),
		httpapi.WithTracing(rt.tracing),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "addr", srv.Addr, "store", cfg.Store.Backend, "bucket", svc.Bucket())

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server stopped")

	return nil
}
