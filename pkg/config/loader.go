package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TOKENGATE_CONFIG env, ./config.yaml, /etc/tokengate/config.yaml)
//  3. TOKENGATE_* environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. TOKENGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/tokengate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("TOKENGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/tokengate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps TOKENGATE_* environment variables to config fields.
// Unparseable numeric or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TOKENGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("TOKENGATE_ENDPOINT"); v != "" {
		cfg.Issuing.Endpoint = v
	}
	if v := os.Getenv("TOKENGATE_ALGORITHM"); v != "" {
		cfg.Issuing.Algorithm = v
	}
	if v := os.Getenv("TOKENGATE_SIGNING_KEY"); v != "" {
		cfg.Issuing.Key = v
	}
	if v := os.Getenv("TOKENGATE_SIGNING_KEY_FILE"); v != "" {
		cfg.Issuing.KeyFile = v
	}
	if v := os.Getenv("TOKENGATE_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Issuing.Lifetime = d
		}
	}

	if v := os.Getenv("TOKENGATE_CLAIMS_STORE"); v != "" {
		cfg.Claims.Store = v
	}
	if v := os.Getenv("TOKENGATE_POSTGRES_DSN"); v != "" {
		cfg.Claims.Postgres.DSN = v
	}
	if v := os.Getenv("TOKENGATE_REDIS_ADDR"); v != "" {
		cfg.Claims.Redis.Addr = v
	}
	if v := os.Getenv("TOKENGATE_REDIS_PASSWORD"); v != "" {
		cfg.Claims.Redis.Password = v
	}

	if v := os.Getenv("TOKENGATE_AUTH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.Enabled = b
		}
	}
	// TOKENGATE_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("TOKENGATE_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	if v := os.Getenv("TOKENGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TOKENGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// issuing.key_file -> issuing.key
	if cfg.Issuing.KeyFile != "" && cfg.Issuing.Key == "" {
		val, err := readKeyFile(cfg.Issuing.KeyFile)
		if err != nil {
			return fmt.Errorf("issuing.key_file: %w", err)
		}
		cfg.Issuing.Key = val
	}

	// claims.postgres.dsn_file -> claims.postgres.dsn
	if cfg.Claims.Postgres.DSNFile != "" && cfg.Claims.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Claims.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("claims.postgres.dsn_file: %w", err)
		}
		cfg.Claims.Postgres.DSN = val
	}

	// claims.redis.password_file -> claims.redis.password
	if cfg.Claims.Redis.PasswordFile != "" && cfg.Claims.Redis.Password == "" {
		val, err := readSecretFile(cfg.Claims.Redis.PasswordFile)
		if err != nil {
			return fmt.Errorf("claims.redis.password_file: %w", err)
		}
		cfg.Claims.Redis.Password = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a text secret and trims surrounding whitespace.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readKeyFile reads signing key material. PEM content is trimmed; anything
// else is returned byte for byte, so raw HMAC secrets and Ed25519 seeds may
// contain or end in whitespace. Write text secrets with printf or echo -n.
func readKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("-----BEGIN")) {
		return strings.TrimSpace(string(data)), nil
	}
	return string(data), nil
}
