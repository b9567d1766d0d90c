// Package config defines the gatekeeper configuration, loaded from YAML
// with sensible defaults for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mintworks/mintgate/pkg/ledger"
)

// Config is the top-level gatekeeper configuration.
type Config struct {
	// GuardData locates the serialized guard configuration buffer.
	GuardData GuardDataConfig `yaml:"guard_data"`

	// Storage selects the guard record backend.
	Storage StorageConfig `yaml:"storage"`

	// Audit configures the mint audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Sweep configures the periodic escrow sweep job.
	Sweep SweepConfig `yaml:"sweep"`

	// Programs is the process-wide program allow-list used by the
	// transaction shape guards.
	Programs ProgramsConfig `yaml:"programs"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
}

// GuardDataConfig locates and watches the guard configuration buffer.
type GuardDataConfig struct {
	// Path to the serialized guard data file.
	Path string `yaml:"path"`

	// Watch reloads the buffer when the file changes.
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces bursts of file events into one reload.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// StorageConfig selects the guard record backend.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path to the SQLite database file. Required for the sqlite backend.
	Path string `yaml:"path"`

	// BusyTimeout is how long SQLite waits for locks before failing.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuditConfig configures the mint audit trail.
type AuditConfig struct {
	// Enabled turns the audit trail on.
	Enabled bool `yaml:"enabled"`

	// Path to the audit SQLite database file.
	Path string `yaml:"path"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the HTTP listen address for /metrics.
	ListenAddress string `yaml:"listen_address"`

	// Namespace prefixes every metric name.
	Namespace string `yaml:"namespace"`
}

// SweepConfig configures the periodic escrow sweep job.
type SweepConfig struct {
	// Enabled turns the sweep job on.
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression.
	Schedule string `yaml:"schedule"`
}

// ProgramsConfig is the process-wide program allow-list.
type ProgramsConfig struct {
	// Defaults are hex-encoded program addresses always allowed in mint
	// transactions.
	Defaults []string `yaml:"defaults"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		GuardData: GuardDataConfig{
			Path:             "guard_data.bin",
			Watch:            false,
			DebounceInterval: 500 * time.Millisecond,
		},
		Storage: StorageConfig{
			Backend:     "memory",
			BusyTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    "audit.db",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9464",
			Namespace:     "mintgate",
		},
		Sweep: SweepConfig{
			Enabled:  false,
			Schedule: "@every 10m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.GuardData.Path == "" {
		return fmt.Errorf("guard_data.path cannot be empty")
	}
	if c.GuardData.DebounceInterval <= 0 {
		return fmt.Errorf("guard_data.debounce_interval must be positive")
	}

	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics.listen_address is required when metrics are enabled")
	}
	if c.Sweep.Enabled && c.Sweep.Schedule == "" {
		return fmt.Errorf("sweep.schedule is required when the sweep is enabled")
	}

	if _, err := c.Programs.Addresses(); err != nil {
		return err
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// Addresses parses the default program list.
func (p *ProgramsConfig) Addresses() ([]ledger.Address, error) {
	addrs := make([]ledger.Address, 0, len(p.Defaults))
	for _, s := range p.Defaults {
		a, err := ledger.AddressFromString(s)
		if err != nil {
			return nil, fmt.Errorf("programs.defaults: %w", err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// SlogLevel maps the configured level to a slog.Level.
func (l *LoggingConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown logging level %q", l.Level)
	}
}

// Logger builds a slog logger writing to stderr per the logging config.
func (l *LoggingConfig) Logger() (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
