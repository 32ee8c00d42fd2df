package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/S1riyS/graphfs/internal/config"
	"github.com/S1riyS/graphfs/internal/handler"
	"github.com/S1riyS/graphfs/internal/metrics"
	"github.com/S1riyS/graphfs/internal/service"
	"github.com/S1riyS/graphfs/pkg/logging"
	"github.com/S1riyS/graphfs/pkg/logging/slogext"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API with the given configuration.

Environment variables override the config file, for example:
  DB_PASSWORD=secret STORAGE_DRIVER=postgres graphfs serve
  STORAGE_DRIVER=memory LOG_FORMAT=json graphfs serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.MakeContextWithLogger(ctx, logger)

	logger.Info("Starting graphfs",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("log_level", cfg.Logging.Level),
		slog.Bool("metrics", cfg.Metrics.Enabled),
	)

	var reg *metrics.Registry
	var graphMetrics *metrics.GraphMetrics
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		graphMetrics = reg.Graph
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	svc := service.NewGraphService(store.tx, store.nodes, store.edges, graphMetrics)
	router := handler.NewRouter(handler.NewHandler(svc), handler.RouterOptions{
		Logger:  logger,
		Timeout: cfg.App.DefaultTimeout,
		Metrics: reg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", slogext.Err(err))
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining connections",
			slog.Duration("timeout", cfg.App.ShutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slogext.Err(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
