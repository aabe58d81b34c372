package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{"PORT", "DB_DRIVER", "DB_DSN", "DB_CONNECT_TIMEOUT", "JWT_SECRET", "LOG_LEVEL"}

// clearEnv unsets every config variable for the duration of the test.
// t.Setenv registers the restore; the Unsetenv makes the key absent so
// godotenv is allowed to fill it.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Port:           8080,
		DBDriver:       DriverSQLite,
		DBDSN:          "data/forum.db",
		ConnectTimeout: 30 * time.Second,
		LogLevel:       slog.LevelInfo,
	}, cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_DSN", "forum:pw@tcp(db:3306)/forum")
	t.Setenv("DB_CONNECT_TIMEOUT", "5s")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "forum:pw@tcp(db:3306)/forum", cfg.DBDSN)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "0123456789abcdef", cfg.JWTSecret)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\nLOG_LEVEL=warn\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, slog.LevelError, cfg.LogLevel, "process environment wins over the file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port not a number", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"mysql without dsn", map[string]string{"DB_DRIVER": "mysql"}},
		{"postgres without dsn", map[string]string{"DB_DRIVER": "postgres"}},
		{"bad timeout", map[string]string{"DB_CONNECT_TIMEOUT": "soon"}},
		{"negative timeout", map[string]string{"DB_CONNECT_TIMEOUT": "-1s"}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(noEnvFile(t))
			assert.Error(t, err)
		})
	}
}
