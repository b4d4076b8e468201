// Package app wires configuration into the concrete storage, secrets and
// pipeline components shared by the entry points.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/shopspring/decimal"

	"github.com/aevon-lab/winestats/internal/core/aggregation"
	corecfg "github.com/aevon-lab/winestats/internal/core/config"
	"github.com/aevon-lab/winestats/internal/core/secrets"
	"github.com/aevon-lab/winestats/internal/core/storage"
	"github.com/aevon-lab/winestats/internal/core/storage/postgres"
	"github.com/aevon-lab/winestats/internal/core/storage/s3store"
	"github.com/aevon-lab/winestats/internal/migrations"
	"github.com/aevon-lab/winestats/internal/trigger"
)

// OpenStore builds the artifact store selected by storage.type. The returned
// close function releases backend resources.
func OpenStore(cfg corecfg.StorageConfig) (storage.ArtifactStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Type {
	case "s3":
		store, err := s3store.NewStore(s3store.Options{
			Bucket:         cfg.Bucket,
			Region:         cfg.Region,
			Endpoint:       cfg.Endpoint,
			ForcePathStyle: cfg.ForcePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		return store, noop, nil

	case "postgres":
		db, err := postgres.Open(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := migrations.RunMigrations(db, cfg.AutoMigrate); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		adapter, err := postgres.NewAdapter(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return adapter, adapter.Close, nil

	case "filesystem":
		return storage.NewFileSystemStore(cfg.Root), noop, nil

	case "memory":
		slog.Warn("[App] Using in-memory storage; artifacts are lost on exit")
		return storage.NewMemoryStore(), noop, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage.type %q", cfg.Type)
}

// ResolveAPIKey returns a provider holding the configured API key. Secrets
// Manager is read once here so a missing secret fails startup.
func ResolveAPIKey(ctx context.Context, cfg corecfg.AuthConfig, region string) (secrets.Provider, error) {
	if cfg.SecretName == "" {
		return secrets.Static(cfg.APIKey), nil
	}

	sm, err := secrets.NewSecretsManager(region, cfg.SecretName, cfg.SecretField)
	if err != nil {
		return nil, err
	}
	key, err := sm.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve api key: %w", err)
	}
	return secrets.Static(key), nil
}

// PipelineOptions maps config onto the aggregation pipeline.
func PipelineOptions(cfg *corecfg.Config) trigger.PipelineOptions {
	return trigger.PipelineOptions{
		RedKey:   cfg.Datasets.RedKey,
		WhiteKey: cfg.Datasets.WhiteKey,
		HighKey:  cfg.Datasets.HighKey,
		LowKey:   cfg.Datasets.LowKey,
		Thresholds: aggregation.Thresholds{
			High: decimal.NewFromFloat(cfg.Aggregation.HighThreshold),
			Low:  decimal.NewFromFloat(cfg.Aggregation.LowThreshold),
		},
		Delimiter: cfg.Datasets.DelimiterRune(),
	}
}

// KeyFilter maps config onto the trigger key filter.
func KeyFilter(cfg *corecfg.Config) trigger.KeyFilter {
	return trigger.KeyFilter{Prefix: cfg.Aggregation.KeyPrefix, Suffix: cfg.Aggregation.KeySuffix}
}

// PollerOptions maps config onto the queue poller.
func PollerOptions(cfg corecfg.PollerConfig) trigger.PollerOptions {
	return trigger.PollerOptions{
		QueueURL:          cfg.QueueURL,
		MaxMessages:       cfg.MaxMessages,
		WaitTime:          cfg.WaitTime,
		VisibilityTimeout: cfg.VisibilityTimeout,
		Backoff:           cfg.Backoff,
	}
}

// NewSQSClient creates a queue client for region. endpoint overrides the
// service URL for local stacks.
func NewSQSClient(region, endpoint string) (*sqs.SQS, error) {
	awsCfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}
	return sqs.New(sess), nil
}
