package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flight-planner/internal/config"
	"flight-planner/internal/logging"
	"flight-planner/internal/metrics"
	"flight-planner/planner"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config file (defaults are used when empty)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config failed: %v", err)
		}
		cfg = loaded
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	srv, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.Any("error", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("flight planner server starting",
		slog.String("addr", cfg.Server.Addr),
		slog.Int("no_fly_zones", len(srv.zones)),
		slog.Bool("metrics", cfg.Metrics.Enabled))

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	}
}

// newServer loads no-fly zones and builds the planner and collectors from cfg.
func newServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	s := &server{
		cfg: cfg,
		log: logger,
		planner: planner.New(planner.Options{
			CornerDedupFactor:    cfg.Planner.CornerDedupFactor,
			OutsideDropThreshold: cfg.Planner.OutsideDropThreshold,
			MaxGridPoints:        cfg.Planner.MaxGridPoints,
			Logger:               logger,
		}),
	}

	if cfg.NoFlyZones.Dir != "" {
		zones, err := planner.LoadNoFlyZonesFromDir(cfg.NoFlyZones.Dir, logger)
		if err != nil {
			return nil, err
		}
		s.zones = zones
	}

	if cfg.Metrics.Enabled {
		collector, err := metrics.NewCollector(nil)
		if err != nil {
			return nil, err
		}
		s.metrics = collector
	}
	return s, nil
}
