// Command catalogd serves the component search engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/catalog"
	"github.com/goliatone/go-component-search/internal/bunstore"
	"github.com/goliatone/go-component-search/internal/config"
	"github.com/goliatone/go-component-search/internal/httpapi"
	"github.com/goliatone/go-component-search/internal/logging"
	"github.com/goliatone/go-component-search/pkg/di"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	seedPath := flag.String("seed", "", "JSON dataset imported before serving")
	normalize := flag.Bool("normalize-paths", false, "rewrite legacy text family paths on import")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	container, err := di.NewContainer(ctx, cfg, di.WithLogger(logger))
	if err != nil {
		logger.Fatal("Failed to initialize container", zap.Error(err))
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Error("Failed to release resources", zap.Error(err))
		}
	}()

	if *seedPath != "" {
		if err := seed(ctx, container, *seedPath, *normalize); err != nil {
			logger.Fatal("Failed to import dataset", zap.String("path", *seedPath), zap.Error(err))
		}
	}

	handler := httpapi.NewRouter(container.Engine(), logger.Named("http")).Setup(func(r chi.Router) {
		r.Handle(cfg.Server.MetricsPath, promhttp.HandlerFor(container.Registry(), promhttp.HandlerOpts{}))
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.Server.Addr),
			zap.String("cache_backend", string(cfg.Cache.Backend)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func seed(ctx context.Context, container *di.Container, path string, normalize bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ds, err := catalog.DecodeDataset(f)
	if err != nil {
		return err
	}
	_, err = container.Seed(ctx, ds, bunstore.ImportOptions{NormalizePaths: normalize})
	return err
}
