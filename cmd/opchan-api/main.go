package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opchan-dev/opchan/internal/config"
	"github.com/opchan-dev/opchan/internal/logger"
	"github.com/opchan-dev/opchan/internal/middleware/metrics"
	"github.com/opchan-dev/opchan/internal/router"
	"github.com/opchan-dev/opchan/internal/setup"
	"github.com/opchan-dev/opchan/internal/storage/pg"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go exportThreadCount(ctx, deps.Storage)

	port := cfg.Public.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router.New(deps),
	}

	go func() {
		logger.Log.Info("server started", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("shutdown failed", "error", err)
	}
}

// exportThreadCount periodically refreshes the stored-thread gauge.
func exportThreadCount(ctx context.Context, storage *pg.Storage) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			total, err := storage.ThreadCount()
			if err != nil {
				logger.Log.Warn("failed to refresh thread count metric", "error", err)
				continue
			}
			metrics.SetThreadsStored(total)
		case <-ctx.Done():
			return
		}
	}
}
