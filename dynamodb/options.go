package dynamodb

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option is a functional option for configuring a [Client].
type Option func(*Options)

// Options holds the configuration for a [Client]. Use [Option] functions
// (such as [WithAPI] or [WithClock]) to customise the defaults.
type Options struct {
	dynamoDBAPI API
	clock       func() time.Time
	idGenerator func() string
	logger      *slog.Logger
}

func newOptions() *Options {
	return &Options{
		clock:       time.Now,
		idGenerator: uuid.NewString,
		logger:      slog.New(slog.DiscardHandler),
	}
}

func (o *Options) validate() error {
	if o.clock == nil {
		return errors.New("clock cannot be nil")
	}

	if o.idGenerator == nil {
		return errors.New("ID generator cannot be nil")
	}

	if o.logger == nil {
		return errors.New("logger cannot be nil")
	}

	return nil
}

// WithAPI sets a custom [API] implementation. This is useful when a custom
// DynamoDB configuration is required, or for injecting mocks in tests.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.dynamoDBAPI = api
	}
}

// WithClock sets a custom clock function used to stamp item creation times.
// Defaults to [time.Now]. This is useful for controlling time in tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.clock = clock
	}
}

// WithIDGenerator sets the function used to generate item IDs. Defaults to
// random (version 4) UUIDs.
func WithIDGenerator(gen func() string) Option {
	return func(o *Options) {
		o.idGenerator = gen
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}
