package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/aevon-lab/winestats/internal/app"
	corecfg "github.com/aevon-lab/winestats/internal/core/config"
	"github.com/aevon-lab/winestats/internal/core/storage"
	"github.com/aevon-lab/winestats/internal/query"
	"github.com/aevon-lab/winestats/internal/server"
	"github.com/aevon-lab/winestats/internal/trigger"
)

func main() {
	configPath := flag.String("config", "winestats.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("Exiting with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(configPath string) error {
	// 1. Load Configuration
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		slog.Warn("Config file not found, using defaults and env", "path", configPath)
		configPath = ""
	}
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.Info("Loaded config",
		"storage", cfg.Storage.Type,
		"bucket", cfg.Storage.Bucket,
		"poller_enabled", cfg.Poller.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Storage
	store, closeStore, err := app.OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	// 3. Resolve API key
	if !cfg.Auth.HasAPIKey() {
		slog.Warn("No API key configured; every query request will be rejected")
	}
	keys, err := app.ResolveAPIKey(ctx, cfg.Auth, cfg.Storage.Region)
	if err != nil {
		return err
	}

	// 4. Initialize Query API
	querySvc := query.NewService(store, keys, cfg.Datasets.HighKey, cfg.Datasets.LowKey)
	queryHandler := query.NewHandler(querySvc, cfg.Server.APIKeyHeader)

	// 5. Initialize Server
	health, _ := store.(storage.HealthChecker)
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), health, cfg.Server.Mode)
	queryHandler.RegisterRoutes(srv.Engine)

	// 6. Initialize Queue Poller
	var poller *trigger.Poller
	if cfg.Poller.Enabled {
		sqsClient, err := app.NewSQSClient(cfg.Storage.Region, cfg.Storage.Endpoint)
		if err != nil {
			return err
		}
		pipeline := trigger.NewPipeline(store, app.PipelineOptions(cfg))
		listener := trigger.NewDirectEvent(pipeline, app.KeyFilter(cfg))
		poller = trigger.NewPoller(sqsClient, listener, app.PollerOptions(cfg.Poller))
	} else {
		slog.Info("Queue poller disabled by config")
	}

	// 7. Start Services
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if poller != nil {
		g.Go(func() error {
			return poller.Run(gctx)
		})
	}

	return g.Wait()
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
