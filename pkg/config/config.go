// Package config provides unified configuration for the tokengate server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (TOKENGATE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/tokengate/pkg/claims"
)

// Config holds all configuration for the tokengate server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Issuing       IssuingConfig       `yaml:"issuing"`
	Claims        ClaimsConfig        `yaml:"claims"`
	Auth          AuthConfig          `yaml:"auth"`
	Values        ValuesConfig        `yaml:"values"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 30s
	MaxBodySize  int64         `yaml:"max_body_size"` // token request cap, default: 1 MiB
}

// IssuingConfig holds the token endpoint and signing settings.
type IssuingConfig struct {
	Endpoint  string        `yaml:"endpoint"`  // default: "/api/token"
	Algorithm string        `yaml:"algorithm"` // JWS alg name, default: "HS256"
	Key       string        `yaml:"key"`       // HMAC secret or PEM private key
	KeyFile   string        `yaml:"key_file"`  // _file variant for key; only PEM content is trimmed
	Lifetime  time.Duration `yaml:"lifetime"`  // 0 = tokens never expire, default: 1h
}

// ClaimsConfig selects and configures the user store.
type ClaimsConfig struct {
	Store    string         `yaml:"store"` // "memory", "postgres" or "redis", default: "memory"
	Users    []claims.User  `yaml:"users"` // seed users for the memory store
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr         string `yaml:"addr"` // default: "localhost:6379"
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"` // _file variant for password
	DB           int    `yaml:"db"`
	Prefix       string `yaml:"prefix"` // default: "tokengate:"
}

// AuthConfig holds bearer guard settings for routes other than the token endpoint.
type AuthConfig struct {
	Enabled      bool           `yaml:"enabled"`       // default: true
	Bypass       []string       `yaml:"bypass"`        // default: /healthz, /readyz, /metrics
	SubjectClaim string         `yaml:"subject_claim"` // default: "sub"
	APIKeys      []APIKeyConfig `yaml:"api_keys"`      // static keys accepted next to issued tokens
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Subject string `yaml:"subject" json:"subject"`
	Key     string `yaml:"key" json:"key"`
	KeyFile string `yaml:"key_file" json:"key_file"` // _file variant for key
	SHA256  string `yaml:"sha256" json:"sha256"`     // hex digest instead of plaintext
}

// ValuesConfig holds settings for the values resource.
type ValuesConfig struct {
	MaxSize int `yaml:"max_size"` // 0 = unlimited, default: 10000
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error; default: info
	Format string `yaml:"format"` // text or json; default: text
	Debug  string `yaml:"debug"`  // comma-separated debug categories, see pkg/debug
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodySize:  1 << 20,
		},
		Issuing: IssuingConfig{
			Endpoint:  "/api/token",
			Algorithm: "HS256",
			Lifetime:  time.Hour,
		},
		Claims: ClaimsConfig{
			Store: "memory",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "tokengate:",
			},
		},
		Auth: AuthConfig{
			Enabled:      true,
			Bypass:       []string{"/healthz", "/readyz", "/metrics"},
			SubjectClaim: "sub",
		},
		Values: ValuesConfig{
			MaxSize: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
