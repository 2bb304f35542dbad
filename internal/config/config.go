// Package config loads taglox.yaml and applies TAGLOX_* environment
// overrides on top of it.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "taglox.yaml"

type Config struct {
	Log   Log   `yaml:"log"`
	Tags  Tags  `yaml:"tags"`
	Serve Serve `yaml:"serve"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Tags selects where tag literals are looked up. File wins over a database
// when both are set.
type Tags struct {
	File    string        `yaml:"file"`
	Driver  string        `yaml:"driver"`
	DSN     string        `yaml:"dsn"`
	Table   string        `yaml:"table"`
	Refresh time.Duration `yaml:"refresh"`
}

type Serve struct {
	Addr           string `yaml:"addr"`
	MaxSourceBytes int    `yaml:"max_source_bytes"`
}

func Default() *Config {
	return &Config{
		Log:   Log{Level: "info"},
		Tags:  Tags{Table: "tags"},
		Serve: Serve{Addr: ":8080", MaxSourceBytes: 64 << 10},
	}
}

// Load reads path over the defaults. An empty path means DefaultFile, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrap(err, "open config")
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("TAGLOX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("TAGLOX_TAGS_DRIVER"); v != "" {
		c.Tags.Driver = v
	}
	if v := getenv("TAGLOX_TAGS_DSN"); v != "" {
		c.Tags.DSN = v
	}
	if v := getenv("TAGLOX_SERVE_ADDR"); v != "" {
		c.Serve.Addr = v
	}
}

// SlogLevel maps Log.Level to a slog level; unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
