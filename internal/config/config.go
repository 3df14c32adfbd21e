// Package config assembles the tracker's runtime settings.
//
// Sources, later ones winning:
//
//  1. Built-in defaults
//  2. A YAML file, if a path is given or TRACKER_CONFIG is set
//  3. Environment variables, including any loaded from ./.env
//
// With no file and no variables the tracker listens on 0.0.0.0:8080 and
// keeps its history in location_history.json in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// History backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Environment variables read by Load.
const (
	EnvConfig         = "TRACKER_CONFIG"
	EnvListen         = "TRACKER_LISTEN"
	EnvHistoryBackend = "TRACKER_HISTORY_BACKEND"
	EnvHistoryFile    = "TRACKER_HISTORY_FILE"
	EnvSQLitePath     = "TRACKER_SQLITE_PATH"
	EnvWorkers        = "TRACKER_WORKERS"
	EnvQueue          = "TRACKER_QUEUE"
	EnvMetricsAddr    = "TRACKER_METRICS_ADDR"
	EnvLogLevel       = "TRACKER_LOG_LEVEL"
)

// dotEnvPath is the optional env file read by Load.
var dotEnvPath = ".env"

// Config holds every setting the tracker reads at startup.
type Config struct {
	Listen      string        `yaml:"listen"`
	History     HistoryConfig `yaml:"history"`
	Workers     int           `yaml:"workers"`
	QueueDepth  int           `yaml:"queue_depth"`
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables the metrics listener
	LogLevel    string        `yaml:"log_level"`
}

// HistoryConfig selects where the history snapshot lives.
type HistoryConfig struct {
	Backend    string `yaml:"backend"`
	File       string `yaml:"file"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Listen: "0.0.0.0:8080",
		History: HistoryConfig{
			Backend:    BackendFile,
			File:       "location_history.json",
			SQLitePath: "location_history.db",
		},
		Workers:    64,
		QueueDepth: 128,
		LogLevel:   "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path (or $TRACKER_CONFIG) and the environment, then validates it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotEnvPath, err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Listen = getenv(EnvListen, c.Listen)
	c.History.Backend = getenv(EnvHistoryBackend, c.History.Backend)
	c.History.File = getenv(EnvHistoryFile, c.History.File)
	c.History.SQLitePath = getenv(EnvSQLitePath, c.History.SQLitePath)
	c.MetricsAddr = getenv(EnvMetricsAddr, c.MetricsAddr)
	c.LogLevel = getenv(EnvLogLevel, c.LogLevel)

	var err error
	if c.Workers, err = getenvInt(EnvWorkers, c.Workers); err != nil {
		return err
	}
	if c.QueueDepth, err = getenvInt(EnvQueue, c.QueueDepth); err != nil {
		return err
	}
	return nil
}

// Validate reports the first setting the tracker cannot run with.
func (c *Config) Validate() error {
	switch c.History.Backend {
	case BackendFile:
		if c.History.File == "" {
			return errors.New("config: history file path is empty")
		}
	case BackendSQLite:
		if c.History.SQLitePath == "" {
			return errors.New("config: sqlite path is empty")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown history backend %q", c.History.Backend)
	}
	if c.Listen == "" {
		return errors.New("config: listen address is empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("config: queue depth must not be negative, got %d", c.QueueDepth)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return n, nil
}
