// Package config loads runtime configuration for the roommate service.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables (a local .env file is loaded first when present).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ConfigPathEnvVar overrides where the YAML file is looked up.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"roommate.yaml",
	"roommate.yml",
	"/etc/roommate/config.yaml",
}

// Used when JWT_SECRET is unset outside production.
const devJWTSecret = "your_secret_key_please_change_in_production"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Logging  LoggingConfig  `koanf:"logging"`
	Matching MatchingConfig `koanf:"matching"`
	Sweeper  SweeperConfig  `koanf:"sweeper"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Environment     string        `koanf:"environment"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	LoginRateLimit  int           `koanf:"login_rate_limit"`
	LoginRateWindow time.Duration `koanf:"login_rate_window"`
}

// DatabaseConfig is handed to store.Open. Path is only used by the sqlite
// driver; DSN only by postgres.
type DatabaseConfig struct {
	Driver       string `koanf:"driver"`
	DSN          string `koanf:"dsn"`
	Path         string `koanf:"path"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MatchingConfig holds the defaults applied to GET /candidates.
type MatchingConfig struct {
	DefaultLimit int      `koanf:"default_limit"`
	MaxLimit     int      `koanf:"max_limit"`
	RequiredKeys []string `koanf:"required_keys"`
}

// SweeperConfig drives the retirement of matched profiles.
type SweeperConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Interval  time.Duration `koanf:"interval"`
	Retention time.Duration `koanf:"retention"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5001",
			Environment:     EnvDevelopment,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:5173", "http://localhost:3001"},
			LoginRateLimit:  10,
			LoginRateWindow: time.Minute,
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Path:         "data/roommate.db",
			MaxOpenConns: 10,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Matching: MatchingConfig{
			DefaultLimit: 0,
			MaxLimit:     100,
		},
		Sweeper: SweeperConfig{
			Enabled:   true,
			Interval:  time.Hour,
			Retention: 10 * 24 * time.Hour,
		},
	}
}

// Load reads .env, the optional YAML file and the environment.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitLists(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.Environment = NormalizeEnv(cfg.Server.Environment)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"http_addr":         "server.addr",
	"go_env":            "server.environment",
	"shutdown_timeout":  "server.shutdown_timeout",
	"cors_origins":      "server.cors_origins",
	"login_rate_limit":  "server.login_rate_limit",
	"login_rate_window": "server.login_rate_window",

	"database_driver":   "database.driver",
	"database_url":      "database.dsn",
	"db_path":           "database.path",
	"db_max_open_conns": "database.max_open_conns",

	"jwt_secret": "auth.jwt_secret",
	"token_ttl":  "auth.token_ttl",

	"log_level":  "logging.level",
	"log_format": "logging.format",

	"match_default_limit": "matching.default_limit",
	"match_max_limit":     "matching.max_limit",
	"match_required_keys": "matching.required_keys",

	"sweeper_enabled": "sweeper.enabled",
	"sweep_interval":  "sweeper.interval",
	"match_retention": "sweeper.retention",
}

// envKey maps known environment variables onto config paths and drops the
// rest so unrelated variables cannot leak into the config.
func envKey(key string) string {
	return envMappings[strings.ToLower(key)]
}

var listPaths = []string{"server.cors_origins", "matching.required_keys"}

// splitLists turns comma separated env values into string slices.
func splitLists(k *koanf.Koanf) error {
	for _, path := range listPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var items []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks the loaded values and fills the development JWT secret.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		} else {
			c.Auth.JWTSecret = devJWTSecret
		}
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Sweeper.Enabled && (c.Sweeper.Interval <= 0 || c.Sweeper.Retention <= 0) {
		errs = append(errs, errors.New("sweeper interval and retention must be positive"))
	}
	if c.Matching.DefaultLimit < 0 || c.Matching.MaxLimit < 0 {
		errs = append(errs, errors.New("matching limits must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// NormalizeEnv maps common spellings onto the canonical environment names.
func NormalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "dev", "develop", "development", "local":
		return EnvDevelopment
	case "prod", "production":
		return EnvProduction
	case "test", "testing":
		return EnvTest
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
