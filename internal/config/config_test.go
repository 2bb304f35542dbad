package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taglox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
tags:
  driver: postgres
  dsn: postgres://localhost/tags
  refresh: 30s
serve:
  addr: ":9000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := &Config{
		Log:   Log{Level: "debug"},
		Tags:  Tags{Driver: "postgres", DSN: "postgres://localhost/tags", Table: "tags", Refresh: 30 * time.Second},
		Serve: Serve{Addr: ":9000", MaxSourceBytes: 64 << 10},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "open config")

	_, err = Load(writeFile(t, "tags:\n  driverr: sqlite\n"))
	require.ErrorContains(t, err, "parse")
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		"TAGLOX_LOG_LEVEL":   "warn",
		"TAGLOX_TAGS_DRIVER": "mysql",
		"TAGLOX_TAGS_DSN":    "user@/tags",
		"TAGLOX_SERVE_ADDR":  "127.0.0.1:0",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) string { return env[k] })

	if cfg.Tags.Driver != "mysql" || cfg.Tags.DSN != "user@/tags" || cfg.Serve.Addr != "127.0.0.1:0" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if got := cfg.SlogLevel(); got != slog.LevelWarn {
		t.Errorf("SlogLevel() = %v, want warn", got)
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv("TAGLOX_TAGS_DRIVER", "sqlite3")
	cfg, err := Load(writeFile(t, "tags:\n  driver: postgres\n"))
	require.NoError(t, err)
	if cfg.Tags.Driver != "sqlite3" {
		t.Errorf("driver = %q, want sqlite3", cfg.Tags.Driver)
	}
}
