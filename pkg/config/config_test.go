package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mintworks/mintgate/pkg/ledger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	program := ledger.NewAddress("system-program")
	path := writeConfig(t, `
guard_data:
  path: /var/lib/mintgate/guards.bin
  watch: true
  debounce_interval: 1s
storage:
  backend: sqlite
  path: /var/lib/mintgate/state.db
metrics:
  enabled: true
  namespace: testgate
programs:
  defaults:
    - `+program.String()+`
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GuardData.Path != "/var/lib/mintgate/guards.bin" || !cfg.GuardData.Watch {
		t.Errorf("guard data = %+v", cfg.GuardData)
	}
	if cfg.GuardData.DebounceInterval != time.Second {
		t.Errorf("debounce = %v, want 1s", cfg.GuardData.DebounceInterval)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend = %s", cfg.Storage.Backend)
	}
	if cfg.Metrics.Namespace != "testgate" {
		t.Errorf("namespace = %s", cfg.Metrics.Namespace)
	}
	// Untouched sections keep their defaults.
	if cfg.Sweep.Schedule != "@every 10m" {
		t.Errorf("sweep schedule = %s, want default", cfg.Sweep.Schedule)
	}

	addrs, err := cfg.Programs.Addresses()
	if err != nil {
		t.Fatalf("Addresses: %v", err)
	}
	if len(addrs) != 1 || !addrs[0].Equal(program) {
		t.Errorf("program list = %v", addrs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "empty guard data path",
			mutate: func(c *Config) { c.GuardData.Path = "" },
			want:   "guard_data.path",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Storage.Backend = "postgres" },
			want:   "storage backend",
		},
		{
			name:   "sqlite without path",
			mutate: func(c *Config) { c.Storage.Backend = "sqlite" },
			want:   "storage.path",
		},
		{
			name:   "audit without path",
			mutate: func(c *Config) { c.Audit.Enabled = true; c.Audit.Path = "" },
			want:   "audit.path",
		},
		{
			name:   "bad program address",
			mutate: func(c *Config) { c.Programs.Defaults = []string{"not-hex"} },
			want:   "programs.defaults",
		},
		{
			name:   "bad logging level",
			mutate: func(c *Config) { c.Logging.Level = "loud" },
			want:   "logging level",
		},
		{
			name:   "bad logging format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			want:   "logging format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoggingConfig_SlogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l := LoggingConfig{Level: level, Format: "text"}
		if _, err := l.SlogLevel(); err != nil {
			t.Errorf("level %s: %v", level, err)
		}
	}
}
