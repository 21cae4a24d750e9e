package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/tixcore/docs"
	"github.com/kirinyoku/tixcore/internal/app"
	"github.com/kirinyoku/tixcore/internal/config"
)

// @title        Tixcore API
// @version      1.0
// @description  Event ticketing catalogue: categories, events, sections and their lifecycle.
// @host         localhost:8080
// @BasePath     /
func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
