// Package config loads the todos service configuration from TOML files with
// environment variable overrides and an optional environment overlay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/slackmgr/todos"
	"github.com/slackmgr/todos/internal/logging"
	"github.com/slackmgr/todos/internal/tracing"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvServiceEnv selects the configuration overlay.
	EnvServiceEnv = "TODOS_ENV"

	EnvHTTPAddr        = "TODOS_HTTP_ADDR"
	EnvShutdownTimeout = "TODOS_SHUTDOWN_TIMEOUT"
	EnvJWTSecret       = "TODOS_JWT_SECRET"
	EnvStoreBackend    = "TODOS_STORE"
	EnvEventsQueue     = "TODOS_EVENTS_QUEUE"
	EnvPostgresHost    = "POSTGRES_HOST"
	EnvPostgresPort    = "POSTGRES_PORT"
	EnvPostgresUser    = "POSTGRES_USER"
	EnvPostgresPass    = "POSTGRES_PASSWORD"
	EnvPostgresDB      = "POSTGRES_DB"
	EnvPostgresSSLMode = "POSTGRES_SSLMODE"

	// The following names are kept from the original deployment.
	EnvTable               = "TODOS_TABLE"
	EnvBucket              = "S3_BUCKET"
	EnvSignedURLExpiration = "SIGNED_URL_EXPIRATION"
	EnvAWSRegion           = "AWS_REGION"
)

var loggingEnv = &logging.Env{
	Level:  "TODOS_LOG_LEVEL",
	Format: "TODOS_LOG_FORMAT",
}

var tracingEnv = &tracing.Env{
	Enabled:    "TODOS_TRACING_ENABLED",
	Exporter:   "TODOS_TRACING_EXPORTER",
	Endpoint:   "TODOS_TRACING_ENDPOINT",
	SampleRate: "TODOS_TRACING_SAMPLE_RATE",
}

// Backend selects the item store implementation.
type Backend string

const (
	BackendDynamoDB Backend = "dynamodb"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Config is the root service configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Store       StoreConfig       `toml:"store"`
	Attachments AttachmentsConfig `toml:"attachments"`
	Events      EventsConfig      `toml:"events"`
	AWS         AWSConfig         `toml:"aws"`
	Logging     logging.Config    `toml:"logging"`
	Tracing     tracing.Config    `toml:"tracing"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	JWTSecret       string `toml:"jwt_secret"`
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// StoreConfig selects and configures the item store.
type StoreConfig struct {
	Backend  Backend        `toml:"backend"`
	Table    string         `toml:"table"`
	Postgres PostgresConfig `toml:"postgres"`
}

// PostgresConfig holds the Postgres connection settings. The table name comes
// from [StoreConfig.Table].
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"ssl_mode"`
}

// AttachmentsConfig configures the attachment bucket and upload URL lifetime.
type AttachmentsConfig struct {
	Bucket string `toml:"bucket"`
	// URLExpiration is the upload URL lifetime in seconds.
	URLExpiration int `toml:"url_expiration"`
}

// URLExpirationDuration returns the upload URL lifetime.
func (c *AttachmentsConfig) URLExpirationDuration() time.Duration {
	return time.Duration(c.URLExpiration) * time.Second
}

// EventsConfig configures the item event queue. An empty queue name disables
// event publishing.
type EventsConfig struct {
	QueueName string `toml:"queue_name"`
}

// AWSConfig holds AWS SDK settings.
type AWSConfig struct {
	Region string `toml:"region"`
}

// Load reads path and, if TODOS_ENV is set and a matching overlay file exists
// next to it, merges the overlay. An empty path means [BaseConfigFile] in the
// working directory. A missing base file yields an empty configuration, so a
// deployment can be configured through the environment alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}

	cfg, err := load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = &Config{}
	} else if err != nil {
		return nil, err
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	c.loadDefaults()

	if err := c.loadEnv(); err != nil {
		return err
	}

	if err := c.validate(); err != nil {
		return err
	}

	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if err := c.Tracing.Finalize(tracingEnv); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	return nil
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	mergeString(&c.Server.Addr, overlay.Server.Addr)
	mergeString(&c.Server.ShutdownTimeout, overlay.Server.ShutdownTimeout)
	mergeString(&c.Server.JWTSecret, overlay.Server.JWTSecret)

	if overlay.Store.Backend != "" {
		c.Store.Backend = overlay.Store.Backend
	}
	mergeString(&c.Store.Table, overlay.Store.Table)
	mergeString(&c.Store.Postgres.Host, overlay.Store.Postgres.Host)
	mergeString(&c.Store.Postgres.User, overlay.Store.Postgres.User)
	mergeString(&c.Store.Postgres.Password, overlay.Store.Postgres.Password)
	mergeString(&c.Store.Postgres.Database, overlay.Store.Postgres.Database)
	mergeString(&c.Store.Postgres.SSLMode, overlay.Store.Postgres.SSLMode)
	if overlay.Store.Postgres.Port != 0 {
		c.Store.Postgres.Port = overlay.Store.Postgres.Port
	}

	mergeString(&c.Attachments.Bucket, overlay.Attachments.Bucket)
	if overlay.Attachments.URLExpiration != 0 {
		c.Attachments.URLExpiration = overlay.Attachments.URLExpiration
	}

	mergeString(&c.Events.QueueName, overlay.Events.QueueName)
	mergeString(&c.AWS.Region, overlay.AWS.Region)

	c.Logging.Merge(&overlay.Logging)
	c.Tracing.Merge(&overlay.Tracing)
}

func (c *Config) loadDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "30s"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendDynamoDB
	}
	if c.Store.Postgres.Host == "" {
		c.Store.Postgres.Host = "localhost"
	}
	if c.Store.Postgres.Port == 0 {
		c.Store.Postgres.Port = 5432
	}
	if c.Store.Postgres.SSLMode == "" {
		c.Store.Postgres.SSLMode = "prefer"
	}
	if c.Attachments.URLExpiration == 0 {
		c.Attachments.URLExpiration = 300
	}
}

func (c *Config) loadEnv() error {
	envString(&c.Server.Addr, EnvHTTPAddr)
	envString(&c.Server.ShutdownTimeout, EnvShutdownTimeout)
	envString(&c.Server.JWTSecret, EnvJWTSecret)
	envString(&c.Store.Table, EnvTable)
	envString(&c.Store.Postgres.Host, EnvPostgresHost)
	envString(&c.Store.Postgres.User, EnvPostgresUser)
	envString(&c.Store.Postgres.Password, EnvPostgresPass)
	envString(&c.Store.Postgres.Database, EnvPostgresDB)
	envString(&c.Store.Postgres.SSLMode, EnvPostgresSSLMode)
	envString(&c.Attachments.Bucket, EnvBucket)
	envString(&c.Events.QueueName, EnvEventsQueue)
	envString(&c.AWS.Region, EnvAWSRegion)

	if v := os.Getenv(EnvStoreBackend); v != "" {
		c.Store.Backend = Backend(v)
	}

	if v := os.Getenv(EnvPostgresPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPostgresPort, err)
		}
		c.Store.Postgres.Port = port
	}

	if v := os.Getenv(EnvSignedURLExpiration); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSignedURLExpiration, err)
		}
		c.Attachments.URLExpiration = seconds
	}

	return nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("server: addr is required")
	}

	if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server: invalid shutdown_timeout: %w", err)
	} else if d <= 0 {
		return errors.New("server: shutdown_timeout must be positive")
	}

	switch c.Store.Backend {
	case BackendDynamoDB:
		if c.Store.Table == "" {
			return fmt.Errorf("store: table is required for the dynamodb backend (set %s)", EnvTable)
		}
	case BackendPostgres:
		if c.Store.Postgres.User == "" || c.Store.Postgres.Database == "" {
			return errors.New("store: postgres user and database are required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store: unknown backend %q (must be dynamodb, postgres, or memory)", c.Store.Backend)
	}

	if c.Attachments.Bucket == "" {
		return fmt.Errorf("attachments: bucket is required (set %s)", EnvBucket)
	}

	if d := c.Attachments.URLExpirationDuration(); d <= 0 || d > todos.MaxUploadURLTTL {
		return fmt.Errorf("attachments: url_expiration must be between 1 and %d seconds, got %d", int(todos.MaxUploadURLTTL.Seconds()), c.Attachments.URLExpiration)
	}

	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvServiceEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
