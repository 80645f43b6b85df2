package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be >= 0, got %d", c.Server.MaxBodySize))
	}

	if !strings.HasPrefix(strings.TrimSpace(c.Issuing.Endpoint), "/") {
		errs = append(errs, fmt.Errorf("issuing.endpoint must start with \"/\", got %q", c.Issuing.Endpoint))
	}
	if c.Issuing.Algorithm == "" {
		errs = append(errs, fmt.Errorf("issuing.algorithm is required"))
	}
	if c.Issuing.Key == "" && c.Issuing.KeyFile == "" {
		errs = append(errs, fmt.Errorf("issuing.key or issuing.key_file is required"))
	}
	if c.Issuing.Lifetime < 0 {
		errs = append(errs, fmt.Errorf("issuing.lifetime must be >= 0, got %v", c.Issuing.Lifetime))
	}

	switch c.Claims.Store {
	case "memory":
		for i, u := range c.Claims.Users {
			if err := u.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("claims.users[%d]: %w", i, err))
			}
		}
	case "postgres":
		if c.Claims.Postgres.DSN == "" && c.Claims.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("claims.postgres.dsn or claims.postgres.dsn_file is required when claims.store is \"postgres\""))
		}
	case "redis":
		if c.Claims.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("claims.redis.addr is required when claims.store is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("claims.store must be \"memory\", \"postgres\", or \"redis\", got %q", c.Claims.Store))
	}

	for i, k := range c.Auth.APIKeys {
		if k.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
		if k.Key == "" && k.KeyFile == "" && k.SHA256 == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key, key_file, or sha256 is required", i))
		}
	}

	if c.Values.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("values.max_size must be >= 0, got %d", c.Values.MaxSize))
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	return errors.Join(errs...)
}
