package models

import "time"

// Config represents the application configuration
type Config struct {
	LinkedIn LinkedInConfig `koanf:"linkedin"`
	Session  SessionConfig  `koanf:"session"`
	Store    StoreConfig    `koanf:"store"`
	Cache    CacheConfig    `koanf:"cache"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// LinkedInConfig holds the upstream credential and client settings
type LinkedInConfig struct {
	Username       string        `koanf:"username"`
	Password       string        `koanf:"password"`
	LoginMethod    string        `koanf:"login_method"` // http or browser
	BaseURL        string        `koanf:"base_url"`
	RequestsPerSec float64       `koanf:"requests_per_sec"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	UserAgent      string        `koanf:"user_agent"`
	Headless       bool          `koanf:"headless"`
}

// SessionConfig controls pacing and session lifecycle
type SessionConfig struct {
	MinDelay         time.Duration `koanf:"min_delay"`
	MaxDelay         time.Duration `koanf:"max_delay"`
	NoiseProbability float64       `koanf:"noise_probability"`
	LoginTimeout     time.Duration `koanf:"login_timeout"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout"`
}

// StoreConfig selects the session store backend
type StoreConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres or memory
	DSN    string `koanf:"dsn"`
}

// CacheConfig selects the document cache backend
type CacheConfig struct {
	Driver     string        `koanf:"driver"` // none, memory or redis
	URL        string        `koanf:"url"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// IngestConfig bounds batch ingestion
type IngestConfig struct {
	MaxConcurrency int64 `koanf:"max_concurrency"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig configures the prometheus listener
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Account returns the configured upstream credential
func (c Config) Account() Account {
	return Account{Username: c.LinkedIn.Username, Password: c.LinkedIn.Password}
}
