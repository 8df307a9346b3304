package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pxy05/ownMi-websocket/internal/app"
	"github.com/pxy05/ownMi-websocket/internal/config"
	"github.com/pxy05/ownMi-websocket/internal/logger"
)

func main() {
	logger.Init()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("focus session service started", map[string]any{
		"port": cfg.AppPort,
	})

	<-ctx.Done() // wait for Ctrl+C

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("focus session service stopped cleanly", nil)
}
