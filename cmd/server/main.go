// Package main is the entry point of the forum server.
//
// main only reads configuration, builds the logger and hands both to
// internal/server. Everything else lives in internal packages.
//
// Configuration comes from the environment (and an optional .env file),
// see internal/config for the variables.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/qaforum/internal/config"
	"github.com/sakif/qaforum/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// slog levels, least to most severe: Debug → Info → Warn → Error.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	// The handler package logs encoding failures through the default logger.
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.Int("port", cfg.Port),
		slog.String("driver", cfg.DBDriver),
		slog.Duration("connectTimeout", cfg.ConnectTimeout),
		slog.String("logLevel", cfg.LogLevel.String()),
		slog.Bool("tokens", cfg.JWTSecret != ""),
	)
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, login will not issue tokens")
	}

	srv, err := server.New(server.FromConfig(cfg), logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
