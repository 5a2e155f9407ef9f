// Package config loads the ingestion agent configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"linkedin-ingest/internal/models"
)

// EnvPrefix is stripped from environment variables before mapping them onto
// config keys: INGEST_SESSION_MIN_DELAY -> session.min_delay.
const EnvPrefix = "INGEST_"

const maxConfigFileSize = 1 << 20

// DefaultConfig returns the default configuration for the agent
func DefaultConfig() models.Config {
	return models.Config{
		LinkedIn: models.LinkedInConfig{
			LoginMethod:    "http",
			BaseURL:        "https://www.linkedin.com",
			RequestsPerSec: 1.0,
			RequestTimeout: 30 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			Headless:       true,
		},
		Session: models.SessionConfig{
			MinDelay:         5 * time.Second,
			MaxDelay:         15 * time.Second,
			NoiseProbability: 0.3,
			LoginTimeout:     2 * time.Minute,
			FetchTimeout:     30 * time.Second,
		},
		Store: models.StoreConfig{
			Driver: "sqlite",
			DSN:    "sessions.db",
		},
		Cache: models.CacheConfig{
			Driver:     "none",
			TTL:        15 * time.Minute,
			MaxEntries: 1000,
		},
		Ingest: models.IngestConfig{
			MaxConcurrency: 4,
		},
		Log: models.LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path (if it exists), then applies environment
// overrides on top of DefaultConfig.
func Load(path string) (models.Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return models.Config{}, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return models.Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return models.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return models.Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return models.Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps INGEST_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(content) > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return content, nil
}

// Validate checks cross-field constraints.
func Validate(cfg models.Config) error {
	var errs []error
	if cfg.LinkedIn.Username == "" || cfg.LinkedIn.Password == "" {
		errs = append(errs, errors.New("linkedin.username and linkedin.password are required"))
	}
	switch cfg.LinkedIn.LoginMethod {
	case "http", "browser":
	default:
		errs = append(errs, fmt.Errorf("unknown linkedin.login_method %q", cfg.LinkedIn.LoginMethod))
	}
	if cfg.LinkedIn.RequestsPerSec <= 0 {
		errs = append(errs, errors.New("linkedin.requests_per_sec must be positive"))
	}
	if cfg.Session.MinDelay < 0 || cfg.Session.MinDelay > cfg.Session.MaxDelay {
		errs = append(errs, fmt.Errorf("session delay bounds [%s, %s] are invalid", cfg.Session.MinDelay, cfg.Session.MaxDelay))
	}
	if cfg.Session.NoiseProbability < 0 || cfg.Session.NoiseProbability > 1 {
		errs = append(errs, fmt.Errorf("session.noise_probability %v outside [0, 1]", cfg.Session.NoiseProbability))
	}
	switch cfg.Store.Driver {
	case "sqlite", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", cfg.Store.Driver))
	}
	switch cfg.Cache.Driver {
	case "", "none", "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown cache.driver %q", cfg.Cache.Driver))
	}
	if cfg.Ingest.MaxConcurrency < 1 {
		errs = append(errs, errors.New("ingest.max_concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}
