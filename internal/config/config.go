// Package config provides centralized configuration management for the application.
// Values come from three layers, lowest first: struct tag defaults, an optional
// TOML file, then environment variables. The result is validated on startup to
// fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Import  ImportConfig  `toml:"import"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" toml:"host" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" toml:"port" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" toml:"read_timeout" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" toml:"write_timeout" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" toml:"idle_timeout" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including in-flight confirms (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" toml:"shutdown_timeout" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" toml:"request_timeout" default:"60s"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers
	// are believed. Comma-separated in the environment.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES" toml:"trusted_proxies"`

	// APIKeys enables X-API-Key checks on /api routes when non-empty.
	APIKeys []string `env:"API_KEYS" toml:"api_keys"`
}

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig selects and tunes the record store.
type StoreConfig struct {
	// Driver is one of sqlite, postgres, memory (default: sqlite)
	Driver string `env:"STORE_DRIVER" toml:"driver" default:"sqlite"`

	// DSN is a file path for sqlite or a connection URL for postgres.
	// Supports both STORE_DSN and DATABASE_URL.
	DSN string `env:"STORE_DSN" envAlt:"DATABASE_URL" toml:"dsn" default:"goalio.db"`

	MaxConns        int           `env:"STORE_MAX_CONNS" toml:"max_conns" default:"10"`
	MinConns        int           `env:"STORE_MIN_CONNS" toml:"min_conns" default:"0"`
	MaxConnLifetime time.Duration `env:"STORE_MAX_CONN_LIFETIME" toml:"max_conn_lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `env:"STORE_MAX_CONN_IDLE_TIME" toml:"max_conn_idle_time" default:"30m"`
}

// ImportConfig holds preview and confirm settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted source size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" toml:"max_file_size" default:"10485760"`

	// SimilarityThreshold is the minimum score reported as a semantic duplicate (default: 0.85)
	SimilarityThreshold float64 `env:"IMPORT_SIMILARITY_THRESHOLD" toml:"similarity_threshold" default:"0.85"`

	// PreviewTTL is how long an unconfirmed preview is kept (default: 30m)
	PreviewTTL time.Duration `env:"IMPORT_PREVIEW_TTL" toml:"preview_ttl" default:"30m"`

	// MaxConcurrent is the maximum number of parallel confirms (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" toml:"max_concurrent" default:"4"`

	// MaxWaitTime is how long a confirm waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" toml:"max_wait_time" default:"30s"`

	// ExportDir is where file exports are written (default: current directory)
	ExportDir string `env:"EXPORT_DIR" toml:"export_dir" default:"."`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" toml:"level" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" toml:"format" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
