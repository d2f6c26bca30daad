package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsimonrichard/sceideal/internal/app"
	"github.com/jsimonrichard/sceideal/internal/config"
	"github.com/jsimonrichard/sceideal/internal/logger"
)

func main() {
	logger.Init()

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Fatalw("failed to load configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalw("failed to initialize app", "error", err)
	}

	go func() {
		if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("http server failed", "error", err)
		}
	}()

	logger.Infow("server started", "addr", cfg.BindAddress, "environment", cfg.Environment)

	<-ctx.Done()

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatalw("graceful shutdown failed", "error", err)
	}

	logger.Info("server stopped cleanly")
}
