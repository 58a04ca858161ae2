package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/b0bbywan/go-mpris-hub/api"
	"github.com/b0bbywan/go-mpris-hub/backend"
	"github.com/b0bbywan/go-mpris-hub/config"
	"github.com/b0bbywan/go-mpris-hub/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		logger.Fatal("[%s] Failed to load config: %v", config.AppName, err)
	}

	// Set log level from config
	logger.SetLevel(cfg.LogLevel)

	// Global context for the entire application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reload the log level when the config file changes
	if err := config.WatchLogLevel(ctx); err != nil {
		logger.Warn("[%s] config watcher unavailable: %v", config.AppName, err)
	}

	// Initialize backends
	b, err := backend.New(ctx, cfg)
	if err != nil {
		logger.Fatal("[%s] Backend initialization failed: %v", config.AppName, err)
	}

	// Start enabled backends
	if err := b.Start(); err != nil {
		logger.Fatal("[%s] Backend start failed: %v", config.AppName, err)
	}

	// New api server
	server := api.NewServer(ctx, cfg.Api, b)

	// Channel to synchronize shutdown
	shutdownDone := make(chan struct{})
	// Goroutine for signal handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("[%s] Shutdown signal received, stopping server...", config.AppName)
		if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
			logger.Debug("[%s] sd_notify stopping failed: %v", config.AppName, err)
		}

		// Cancel the global context - stops all listeners
		cancel()

		// Cleanup backends
		b.Close()

		// Signal that cleanup is complete
		close(shutdownDone)
	}()

	// Tell systemd we are up. Outside a unit this is a no-op.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Debug("[%s] sd_notify ready failed: %v", config.AppName, err)
	}

	logger.Info("[%s] started", config.AppName)
	if server != nil {
		if err := server.Run(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("[%s] http server error: %v", config.AppName, err)
		}
	}

	<-shutdownDone
	logger.Info("[%s] stopped", config.AppName)
}
