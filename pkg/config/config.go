// Package config loads user settings from ~/.mangas/config.yaml, letting
// MANGAS_* environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "MANGAS_"

type Config struct {
	Source       string `yaml:"source" env:"SOURCE"`
	Language     string `yaml:"language" env:"LANGUAGE"`
	DownloadDir  string `yaml:"download_dir" env:"DOWNLOAD_DIR"`
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"`
	LogFile      string `yaml:"log_file" env:"LOG_FILE"`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL"`

	PrefetchRadius       int `yaml:"prefetch_radius" env:"PREFETCH_RADIUS"`
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches" env:"MAX_CONCURRENT_FETCHES"`

	CacheCapacity      int           `yaml:"cache_capacity" env:"CACHE_CAPACITY"`
	CacheSweepInterval time.Duration `yaml:"cache_sweep_interval" env:"CACHE_SWEEP_INTERVAL"`

	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	HTTPTimeout       time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT"`
	ImageQuality      string        `yaml:"image_quality" env:"IMAGE_QUALITY"`
}

const (
	QualityData      = "data"
	QualityDataSaver = "data-saver"
)

// Dir is where the config file, database and logs live by default.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mangas"
	}
	return filepath.Join(home, ".mangas")
}

func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func Default() Config {
	dir := Dir()
	home, _ := os.UserHomeDir()
	return Config{
		Source:               "mangadex",
		Language:             "en",
		DownloadDir:          filepath.Join(home, "Downloads"),
		DatabasePath:         filepath.Join(dir, "mangas.db"),
		LogFile:              filepath.Join(dir, "mangas.log"),
		LogLevel:             "info",
		PrefetchRadius:       2,
		MaxConcurrentFetches: 4,
		CacheCapacity:        64,
		CacheSweepInterval:   time.Second,
		RequestsPerSecond:    5,
		HTTPTimeout:          30 * time.Second,
		ImageQuality:         QualityData,
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	return load(path, nil)
}

func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, cfg.Validate()
}

// Save writes cfg as YAML, creating the parent directory.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c Config) Validate() error {
	var errs []error
	if c.PrefetchRadius < 0 {
		errs = append(errs, fmt.Errorf("prefetch_radius must not be negative, got %d", c.PrefetchRadius))
	}
	if c.MaxConcurrentFetches <= 0 {
		errs = append(errs, fmt.Errorf("max_concurrent_fetches must be positive, got %d", c.MaxConcurrentFetches))
	}
	if c.CacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("cache_capacity must not be negative, got %d", c.CacheCapacity))
	}
	if c.CacheSweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("cache_sweep_interval must be positive, got %s", c.CacheSweepInterval))
	}
	if c.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must be positive, got %v", c.RequestsPerSecond))
	}
	switch c.ImageQuality {
	case QualityData, QualityDataSaver:
	default:
		errs = append(errs, fmt.Errorf("image_quality must be %q or %q, got %q", QualityData, QualityDataSaver, c.ImageQuality))
	}
	if strings.TrimSpace(c.Language) == "" {
		errs = append(errs, errors.New("language must not be empty"))
	}
	return errors.Join(errs...)
}

// EnsureDirs creates the directories the database, log file and downloads
// are written to.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{filepath.Dir(c.DatabasePath), filepath.Dir(c.LogFile), c.DownloadDir} {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
