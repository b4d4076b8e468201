package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aevon-lab/winestats/internal/core/aggregation"
	"github.com/aevon-lab/winestats/internal/core/metrics"
	"github.com/aevon-lab/winestats/internal/core/storage"
)

const (
	DefaultRedKey   = "winequality-red.csv"
	DefaultWhiteKey = "winequality-white.csv"
	DefaultHighKey  = "high_quality_average.json"
	DefaultLowKey   = "low_quality_average.json"
)

// PipelineOptions names the source objects, the artifact keys and the
// aggregation parameters.
type PipelineOptions struct {
	RedKey     string
	WhiteKey   string
	HighKey    string
	LowKey     string
	Thresholds aggregation.Thresholds
	Delimiter  rune
}

// DefaultPipelineOptions returns the well-known object names and default thresholds.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		RedKey:     DefaultRedKey,
		WhiteKey:   DefaultWhiteKey,
		HighKey:    DefaultHighKey,
		LowKey:     DefaultLowKey,
		Thresholds: aggregation.DefaultThresholds(),
		Delimiter:  aggregation.DefaultDelimiter,
	}
}

func (o PipelineOptions) normalized() PipelineOptions {
	n := o
	d := DefaultPipelineOptions()
	if n.RedKey == "" {
		n.RedKey = d.RedKey
	}
	if n.WhiteKey == "" {
		n.WhiteKey = d.WhiteKey
	}
	if n.HighKey == "" {
		n.HighKey = d.HighKey
	}
	if n.LowKey == "" {
		n.LowKey = d.LowKey
	}
	if n.Thresholds.High.IsZero() && n.Thresholds.Low.IsZero() {
		n.Thresholds = d.Thresholds
	}
	if n.Delimiter == 0 {
		n.Delimiter = d.Delimiter
	}
	return n
}

// Pipeline fetches both sources, aggregates them and writes the two summaries back.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	store storage.ArtifactStore
	opts  PipelineOptions
}

// Outcome is the result of a completed pipeline run.
type Outcome struct {
	RunID  string
	Rows   int
	High   []byte
	Low    []byte
	Report *aggregation.Report
}

// NewPipeline creates a pipeline over store.
func NewPipeline(store storage.ArtifactStore, opts PipelineOptions) *Pipeline {
	if store == nil {
		panic("trigger: store must not be nil")
	}
	return &Pipeline{store: store, opts: opts.normalized()}
}

// Options returns the effective options.
func (p *Pipeline) Options() PipelineOptions {
	return p.opts
}

// Run aggregates the sources in bucket (or the store's configured bucket when empty).
// Both artifacts are written only after aggregation succeeds; a failure never
// leaves a partial or guessed summary behind.
func (p *Pipeline) Run(ctx context.Context, bucket string) (*Outcome, error) {
	runID := uuid.NewString()
	started := time.Now()
	store := storage.ForBucket(p.store, bucket)

	slog.Info("[Pipeline] Starting aggregation run",
		"run_id", runID,
		"bucket", bucket,
		"red_key", p.opts.RedKey,
		"white_key", p.opts.WhiteKey,
	)

	var red, white []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := store.Get(gctx, p.opts.RedKey)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", p.opts.RedKey, err)
		}
		red = data
		return nil
	})
	g.Go(func() error {
		data, err := store.Get(gctx, p.opts.WhiteKey)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", p.opts.WhiteKey, err)
		}
		white = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report, err := aggregation.Aggregate(
		aggregation.Source{Type: aggregation.SourceRed, Data: red},
		aggregation.Source{Type: aggregation.SourceWhite, Data: white},
		p.opts.Thresholds,
		p.opts.Delimiter,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	highJSON, err := json.Marshal(report.High)
	if err != nil {
		return nil, fmt.Errorf("encode high summary: %w", err)
	}
	lowJSON, err := json.Marshal(report.Low)
	if err != nil {
		return nil, fmt.Errorf("encode low summary: %w", err)
	}

	if err := store.Put(ctx, p.opts.HighKey, highJSON, storage.ContentTypeJSON); err != nil {
		return nil, fmt.Errorf("store %s: %w", p.opts.HighKey, err)
	}
	if err := store.Put(ctx, p.opts.LowKey, lowJSON, storage.ContentTypeJSON); err != nil {
		return nil, fmt.Errorf("store %s: %w", p.opts.LowKey, err)
	}

	elapsed := time.Since(started)
	metrics.PipelineDuration.Observe(elapsed.Seconds())

	if !report.High.Average.Valid || !report.Low.Average.Valid {
		slog.Warn("[Pipeline] Empty partition, stored null average",
			"run_id", runID,
			"high_empty", !report.High.Average.Valid,
			"low_empty", !report.Low.Average.Valid,
		)
	}

	slog.Info("[Pipeline] Aggregation run complete",
		"run_id", runID,
		"rows", len(report.Merged),
		"high", string(highJSON),
		"low", string(lowJSON),
		"duration", elapsed,
	)

	return &Outcome{
		RunID:  runID,
		Rows:   len(report.Merged),
		High:   highJSON,
		Low:    lowJSON,
		Report: report,
	}, nil
}
