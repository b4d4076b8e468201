package trigger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/aevon-lab/winestats/internal/core/metrics"
)

// Runner is the work a listener triggers. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, bucket string) (*Outcome, error)
}

// DirectEvent handles object-created notifications pushed by the storage substrate.
// Each invocation is independent; concurrent invocations share no state.
type DirectEvent struct {
	runner Runner
	filter KeyFilter
}

// NewDirectEvent creates a direct-event listener.
func NewDirectEvent(runner Runner, filter KeyFilter) *DirectEvent {
	if runner == nil {
		panic("trigger: runner must not be nil")
	}
	return &DirectEvent{runner: runner, filter: filter}
}

// OnTrigger runs the pipeline when ev.Key passes the filter. Internal faults,
// including panics, are converted to an error Result.
func (d *DirectEvent) OnTrigger(ctx context.Context, ev Event) (res Result) {
	if !d.filter.Match(ev.Key) {
		slog.Info("[DirectEvent] Ignoring object outside key filter",
			"bucket", ev.Bucket,
			"key", ev.Key,
			"prefix", d.filter.Prefix,
			"suffix", d.filter.Suffix,
		)
		metrics.PipelineRuns.WithLabelValues(string(StatusSkipped)).Inc()
		return Result{Status: StatusSkipped, Message: fmt.Sprintf("Ignored %s", ev.Key)}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DirectEvent] Pipeline panicked", "bucket", ev.Bucket, "key", ev.Key, "panic", r)
			metrics.PipelineRuns.WithLabelValues(string(StatusError)).Inc()
			res = Result{Status: StatusError, Message: fmt.Sprintf("Error processing files: %v", r)}
		}
	}()

	slog.Info("[DirectEvent] Received event",
		"bucket", ev.Bucket,
		"key", ev.Key,
		"event_name", ev.EventName,
	)

	out, err := d.runner.Run(ctx, ev.Bucket)
	if err != nil {
		slog.Error("[DirectEvent] Error processing files", "bucket", ev.Bucket, "key", ev.Key, "error", err)
		metrics.PipelineRuns.WithLabelValues(string(StatusError)).Inc()
		return Result{Status: StatusError, Message: fmt.Sprintf("Error processing files: %v", err)}
	}

	metrics.PipelineRuns.WithLabelValues(string(StatusSuccess)).Inc()
	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Successfully processed %s", ev.Key),
		RunID:   out.RunID,
		High:    out.High,
		Low:     out.Low,
	}
}

// HandleS3Event adapts a Lambda S3 notification. It never returns a non-nil error:
// the invoking substrate decides based on the Result. Records for the same bucket
// are aggregated once, since every run reads both sources anyway.
func (d *DirectEvent) HandleS3Event(ctx context.Context, e events.S3Event) (Result, error) {
	var (
		last     Result
		seen     = make(map[string]bool)
		firstErr *Result
	)
	for _, ev := range FromS3Records(e.Records) {
		if d.filter.Match(ev.Key) && seen[ev.Bucket] {
			continue
		}
		res := d.OnTrigger(ctx, ev)
		if res.Status != StatusSkipped {
			seen[ev.Bucket] = true
		}
		if res.Status == StatusError && firstErr == nil {
			r := res
			firstErr = &r
		}
		if res.Status == StatusSuccess || last.Status == "" {
			last = res
		}
	}

	if firstErr != nil {
		return *firstErr, nil
	}
	if last.Status == "" {
		slog.Warn("[DirectEvent] Notification has no usable records", "records", len(e.Records))
		return Result{Status: StatusError, Message: "Event contains no records"}, nil
	}
	return last, nil
}

// FromS3Records converts notification records to Events, preferring the
// URL-decoded object key.
func FromS3Records(records []events.S3EventRecord) []Event {
	out := make([]Event, 0, len(records))
	for _, r := range records {
		key := r.S3.Object.URLDecodedKey
		if key == "" {
			key = r.S3.Object.Key
		}
		if r.S3.Bucket.Name == "" || key == "" {
			continue
		}
		out = append(out, Event{
			Bucket:    r.S3.Bucket.Name,
			Key:       key,
			EventName: r.EventName,
		})
	}
	return out
}
