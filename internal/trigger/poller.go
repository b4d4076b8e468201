package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"

	"github.com/aevon-lab/winestats/internal/core/metrics"
)

const (
	defaultMaxMessages = 5
	maxMaxMessages     = 10
	defaultWaitTime    = 20 * time.Second
	maxWaitTime        = 20 * time.Second
	defaultBackoff     = 5 * time.Second
)

// ErrTransient marks queue receive failures. They are retried after a fixed
// backoff and never surfaced to a caller.
var ErrTransient = errors.New("transient queue error")

// PollerOptions controls the receive loop.
type PollerOptions struct {
	QueueURL          string
	MaxMessages       int64
	WaitTime          time.Duration // zero selects the 20s default; short polling is not supported
	VisibilityTimeout time.Duration // zero keeps the queue default
	Backoff           time.Duration
}

func (o PollerOptions) normalized() PollerOptions {
	n := o
	if n.MaxMessages <= 0 {
		n.MaxMessages = defaultMaxMessages
	}
	if n.MaxMessages > maxMaxMessages {
		n.MaxMessages = maxMaxMessages
	}
	if n.WaitTime <= 0 {
		n.WaitTime = defaultWaitTime
	}
	if n.WaitTime > maxWaitTime {
		n.WaitTime = maxWaitTime
	}
	if n.Backoff <= 0 {
		n.Backoff = defaultBackoff
	}
	return n
}

// Poller drains a queue of storage notifications and hands each record to a Listener.
//
// Delivery contract: a message that cannot be parsed is deleted, since redelivery
// can never succeed. A parsed message is deleted only when every record was
// handled without an error Result; otherwise it stays on the queue and becomes
// visible again after the visibility timeout. Handling must therefore be idempotent.
//
// One Poller runs a single cooperative loop. Several processes may poll the same
// queue; the visibility timeout keeps them from double-processing.
type Poller struct {
	client   sqsiface.SQSAPI
	listener Listener
	opts     PollerOptions
}

// NewPoller creates a poller that forwards records to listener.
func NewPoller(client sqsiface.SQSAPI, listener Listener, opts PollerOptions) *Poller {
	if client == nil {
		panic("trigger: sqs client must not be nil")
	}
	if listener == nil {
		panic("trigger: listener must not be nil")
	}
	return &Poller{client: client, listener: listener, opts: opts.normalized()}
}

// OnTrigger delegates to the wrapped listener.
func (p *Poller) OnTrigger(ctx context.Context, ev Event) Result {
	return p.listener.OnTrigger(ctx, ev)
}

// Run polls until ctx is cancelled. Cancellation interrupts a pending receive,
// but a batch that was already received is processed and acknowledged first.
func (p *Poller) Run(ctx context.Context) error {
	slog.Info("[Poller] Starting queue poller",
		"queue_url", p.opts.QueueURL,
		"max_messages", p.opts.MaxMessages,
		"wait_time", p.opts.WaitTime,
		"backoff", p.opts.Backoff,
	)

	for {
		if ctx.Err() != nil {
			slog.Info("[Poller] Stopping (context cancelled)")
			return nil
		}

		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("[Poller] Stopping (context cancelled)")
				return nil
			}
			slog.Error("[Poller] Receive failed, backing off", "error", err, "backoff", p.opts.Backoff)
			metrics.QueueReceiveErrors.Inc()

			timer := time.NewTimer(p.opts.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				slog.Info("[Poller] Stopping (context cancelled)")
				return nil
			case <-timer.C:
			}
		}
	}
}

// PollOnce performs one receive and handles every message it returned.
// It returns the number of messages received.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(p.opts.QueueURL),
		MaxNumberOfMessages: aws.Int64(p.opts.MaxMessages),
		WaitTimeSeconds:     aws.Int64(int64(p.opts.WaitTime / time.Second)),
	}
	if p.opts.VisibilityTimeout > 0 {
		input.VisibilityTimeout = aws.Int64(int64(p.opts.VisibilityTimeout / time.Second))
	}

	out, err := p.client.ReceiveMessageWithContext(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("%w: receive: %v", ErrTransient, err)
	}
	if len(out.Messages) == 0 {
		slog.Debug("[Poller] No messages")
		return 0, nil
	}

	// The batch is ours now; finish it even if a stop arrives meanwhile.
	workCtx := context.WithoutCancel(ctx)
	for _, msg := range out.Messages {
		p.handleMessage(workCtx, msg)
	}
	return len(out.Messages), nil
}

func (p *Poller) handleMessage(ctx context.Context, msg *sqs.Message) {
	messageID := aws.StringValue(msg.MessageId)

	evts, err := ParseEnvelope([]byte(aws.StringValue(msg.Body)))
	if err != nil {
		slog.Warn("[Poller] Could not parse message, deleting", "message_id", messageID, "error", err)
		metrics.QueueMessages.WithLabelValues(metrics.OutcomeMalformed).Inc()
		p.delete(ctx, msg)
		return
	}

	// Every run reads both sources, so one run per bucket covers the whole message.
	ran := make(map[string]bool)
	failed := 0
	for _, ev := range evts {
		slog.Info("[Poller] New file uploaded",
			"message_id", messageID,
			"bucket", ev.Bucket,
			"key", ev.Key,
			"event_name", ev.EventName,
		)
		if ran[ev.Bucket] {
			slog.Debug("[Poller] Bucket already aggregated for this message", "message_id", messageID, "bucket", ev.Bucket)
			continue
		}
		res := p.listener.OnTrigger(ctx, ev)
		if res.Status != StatusSkipped {
			ran[ev.Bucket] = true
		}
		if res.Status == StatusError {
			failed++
			slog.Error("[Poller] Record processing failed", "message_id", messageID, "key", ev.Key, "message", res.Message)
		}
	}

	if failed > 0 {
		slog.Warn("[Poller] Leaving message for redelivery", "message_id", messageID, "failed_records", failed)
		metrics.QueueMessages.WithLabelValues(metrics.OutcomeFailed).Inc()
		return
	}

	metrics.QueueMessages.WithLabelValues(metrics.OutcomeProcessed).Inc()
	p.delete(ctx, msg)
}

func (p *Poller) delete(ctx context.Context, msg *sqs.Message) {
	_, err := p.client.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.opts.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		// The message reappears after its visibility timeout and is handled again.
		slog.Error("[Poller] Failed to delete message", "message_id", aws.StringValue(msg.MessageId), "error", err)
	}
}
