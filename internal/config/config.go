// Package config loads the server configuration from the environment.
//
// Every setting is an environment variable. For local development an
// optional .env file in the working directory is read first with
// godotenv; variables already present in the process environment win
// over the file.
//
//	PORT=8080
//	DB_DRIVER=sqlite            # sqlite | mysql | postgres
//	DB_DSN=data/forum.db
//	DB_CONNECT_TIMEOUT=30s
//	JWT_SECRET=                 # empty disables login tokens
//	LOG_LEVEL=info              # debug | info | warn | error
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values of DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const (
	defaultPort           = 8080
	defaultSQLitePath     = "data/forum.db"
	defaultConnectTimeout = 30 * time.Second
	minSecretLen          = 16
)

// Config is the fully validated process configuration.
type Config struct {
	Port           int
	DBDriver       string
	DBDSN          string
	ConnectTimeout time.Duration
	JWTSecret      string
	LogLevel       slog.Level
}

// Load reads the given .env files (".env" when none are named), then the
// environment, and validates the result. A missing .env file is not an
// error; a malformed one is.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: reading %s: %w", f, err)
		}
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		Port:           defaultPort,
		DBDriver:       DriverSQLite,
		ConnectTimeout: defaultConnectTimeout,
		LogLevel:       slog.LevelInfo,
	}

	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := env("DB_DRIVER"); v != "" {
		cfg.DBDriver = strings.ToLower(v)
	}
	switch cfg.DBDriver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("config: unsupported DB_DRIVER %q (want sqlite, mysql or postgres)", cfg.DBDriver)
	}

	cfg.DBDSN = env("DB_DSN")
	if cfg.DBDSN == "" {
		if cfg.DBDriver != DriverSQLite {
			return Config{}, fmt.Errorf("config: DB_DSN is required for driver %s", cfg.DBDriver)
		}
		cfg.DBDSN = defaultSQLitePath
	}

	if v := env("DB_CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: invalid DB_CONNECT_TIMEOUT %q", v)
		}
		cfg.ConnectTimeout = d
	}

	cfg.JWTSecret = env("JWT_SECRET")
	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < minSecretLen {
		return Config{}, fmt.Errorf("config: JWT_SECRET must be at least %d characters", minSecretLen)
	}

	if v := env("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
