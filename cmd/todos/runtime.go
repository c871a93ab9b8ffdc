package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/slackmgr/todos"
	"github.com/slackmgr/todos/dynamodb"
	"github.com/slackmgr/todos/internal/config"
	"github.com/slackmgr/todos/internal/logging"
	"github.com/slackmgr/todos/internal/tracing"
	"github.com/slackmgr/todos/memstore"
	"github.com/slackmgr/todos/postgres"
)

// backend is an item store with a schema setup step.
type backend interface {
	todos.Store
	Init(ctx context.Context, skipSchemaValidation bool) error
}

type memoryBackend struct {
	*memstore.Store
}

func (memoryBackend) Init(context.Context, bool) error {
	return nil
}

type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracing *tracing.Provider
	awsCfg  *aws.Config
}

func newRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tp, err := tracing.New(ctx, &cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	return &runtime{
		cfg:     cfg,
		logger:  logging.New(&cfg.Logging),
		tracing: tp,
	}, nil
}

// close flushes pending spans.
func (r *runtime) close(ctx context.Context) {
	if err := r.tracing.Shutdown(ctx); err != nil {
		r.logger.Error("Failed to shut down tracing", "error", err)
	}
}

func (r *runtime) awsConfig(ctx context.Context) (*aws.Config, error) {
	if r.awsCfg != nil {
		return r.awsCfg, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if r.cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(r.cfg.AWS.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	r.tracing.InstrumentAWS(&awsCfg)
	r.awsCfg = &awsCfg

	return r.awsCfg, nil
}

// openStore connects the configured backend. The returned close function is
// never nil.
func (r *runtime) openStore(ctx context.Context) (backend, func(), error) {
	storeCfg := r.cfg.Store

	switch storeCfg.Backend {
	case config.BackendDynamoDB:
		awsCfg, err := r.awsConfig(ctx)
		if err != nil {
			return nil, nil, err
		}

		client := dynamodb.New(awsCfg, storeCfg.Table, dynamodb.WithLogger(r.logger))
		if err := client.Connect(); err != nil {
			return nil, nil, err
		}

		return client, func() {}, nil

	case config.BackendPostgres:
		pg := storeCfg.Postgres
		opts := []postgres.Option{
			postgres.WithHost(pg.Host),
			postgres.WithPort(pg.Port),
			postgres.WithUser(pg.User),
			postgres.WithPassword(pg.Password),
			postgres.WithDatabase(pg.Database),
			postgres.WithSSLMode(postgres.SSLMode(pg.SSLMode)),
			postgres.WithLogger(r.logger),
		}

		if storeCfg.Table != "" {
			opts = append(opts, postgres.WithTable(storeCfg.Table))
		}

		client := postgres.New(opts...)
		if err := client.Connect(ctx); err != nil {
			return nil, nil, err
		}

		closeFn := func() {
			if err := client.Close(context.Background()); err != nil {
				r.logger.Error("Failed to close Postgres pool", "error", err)
			}
		}

		return client, closeFn, nil

	case config.BackendMemory:
		r.logger.Warn("Using the in-memory item store, items are lost on restart")
		return memoryBackend{memstore.New()}, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", storeCfg.Backend)
	}
}
