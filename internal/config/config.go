package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type CacheConfig struct {
	// Entries kept before the reference cache is cleared wholesale.
	MaxSize int `yaml:"maxSize"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type IngestConfig struct {
	// Events per second accepted by the pump; 0 disables throttling.
	RatePerSec float64 `yaml:"ratePerSec"`
	Burst      int     `yaml:"burst"`
	QueueSize  int     `yaml:"queueSize"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9090"; empty disables the endpoint
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Cache:   CacheConfig{MaxSize: 2048},
		Storage: StorageConfig{DBPath: "./threadloom.db"},
		Ingest:  IngestConfig{RatePerSec: 500, Burst: 100, QueueSize: 1024},
		Metrics: MetricsConfig{Addr: ""},
		Log:     LogConfig{Level: "info"},
	}
}

// ResolveEnv fills in config fields from environment variables when set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("THREADLOOM_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" && c.Metrics.Addr == "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("THREADLOOM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("THREADLOOM_CACHE_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Cache.MaxSize = n
		}
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache.maxSize must be positive, got %d", c.Cache.MaxSize)
	}
	if c.Storage.DBPath == "" {
		return errors.New("storage.dbPath is empty")
	}
	if c.Ingest.RatePerSec < 0 || c.Ingest.Burst < 0 || c.Ingest.QueueSize < 0 {
		return errors.New("ingest settings must not be negative")
	}
	if c.Ingest.RatePerSec > 0 && c.Ingest.Burst == 0 {
		return errors.New("ingest.burst must be set when ingest.ratePerSec is")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Load reads YAML config from path. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ResolveEnv()
	return cfg, cfg.Validate()
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
