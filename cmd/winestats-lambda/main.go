package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/aevon-lab/winestats/internal/app"
	corecfg "github.com/aevon-lab/winestats/internal/core/config"
	"github.com/aevon-lab/winestats/internal/trigger"
)

// Direct-event mode: invoked once per storage notification.
// Configuration comes from WINESTATS_* env vars, plus an optional file named by WINESTATS_CONFIG.
// With s3 storage, WINESTATS_STORAGE__BUCKET is still required because the store is built
// before any event arrives; each run then reads and writes the bucket named by its event.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := corecfg.Load(os.Getenv("WINESTATS_CONFIG"))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := app.OpenStore(cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	pipeline := trigger.NewPipeline(store, app.PipelineOptions(cfg))
	direct := trigger.NewDirectEvent(pipeline, app.KeyFilter(cfg))

	lambda.Start(direct.HandleS3Event)
}
