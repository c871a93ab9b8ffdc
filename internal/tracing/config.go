package tracing

import (
	"fmt"
	"os"
	"strconv"
)

// Exporter selects where spans are sent.
type Exporter string

const (
	ExporterOTLP   Exporter = "otlp"
	ExporterZipkin Exporter = "zipkin"
)

// Env maps environment variable names for tracing configuration.
type Env struct {
	Enabled    string
	Exporter   string
	Endpoint   string
	SampleRate string
}

// Config holds tracing configuration settings. Tracing is off unless Enabled
// is set.
type Config struct {
	Enabled     bool     `toml:"enabled"`
	Exporter    Exporter `toml:"exporter"`
	Endpoint    string   `toml:"endpoint"`
	SampleRate  float64  `toml:"sample_rate"`
	ServiceName string   `toml:"service_name"`
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()

	if err := c.loadEnv(env); err != nil {
		return err
	}

	return c.validate()
}

// Merge applies non-zero values from the overlay configuration. An overlay
// can turn tracing on but not off; use the environment for that.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Exporter != "" {
		c.Exporter = overlay.Exporter
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.SampleRate != 0 {
		c.SampleRate = overlay.SampleRate
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
}

func (c *Config) loadDefaults() {
	if c.Exporter == "" {
		c.Exporter = ExporterOTLP
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1
	}
	if c.ServiceName == "" {
		c.ServiceName = "todos"
	}
}

func (c *Config) loadEnv(env *Env) error {
	if env == nil {
		return nil
	}

	if v := os.Getenv(env.Enabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env.Enabled, err)
		}
		c.Enabled = enabled
	}

	if v := os.Getenv(env.Exporter); v != "" {
		c.Exporter = Exporter(v)
	}

	if v := os.Getenv(env.Endpoint); v != "" {
		c.Endpoint = v
	}

	if v := os.Getenv(env.SampleRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env.SampleRate, err)
		}
		c.SampleRate = rate
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Exporter {
	case ExporterOTLP, ExporterZipkin:
	default:
		return fmt.Errorf("invalid exporter %q: must be otlp or zipkin", c.Exporter)
	}

	if c.SampleRate <= 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate must be in (0, 1], got %g", c.SampleRate)
	}

	return nil
}
