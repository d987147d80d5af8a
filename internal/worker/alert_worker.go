// Package worker consumes published alerts from the broker and routes
// them to a notification sink.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/log"
)

// Alerts older than this are acknowledged without notifying: the condition
// they describe has been recomputed many times since.
const maxAlertAge = 24 * time.Hour

// Notifier delivers an alert to an external channel.
type Notifier interface {
	Notify(ctx context.Context, msg *amqp.AlertMessage) error
}

// LogNotifier writes alerts to the structured log. It is the default sink
// when no external channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg *amqp.AlertMessage) error {
	fields := log.NewFields().
		WithOperation(log.OpConsume).
		WithScope(strings.Join(msg.WorkspaceScope, ",")).
		WithAlert(string(msg.Kind), string(msg.Severity))
	fields[log.FieldMessageID] = msg.MessageID
	fields["message"] = msg.Message
	if msg.RelatedEntityID != "" {
		fields["related_entity_id"] = msg.RelatedEntityID
	}
	slog.InfoContext(ctx, "Alert received", fields.ToSlice()...)
	return nil
}

// AlertWorker consumes alert messages from AMQP and hands them to a
// Notifier. Redelivered messages are deduplicated by message id.
type AlertWorker struct {
	client   *amqp.Client
	notifier Notifier

	// seen holds recently handled message ids to absorb redeliveries
	seen *cache.LRUCache[struct{}]

	processed int64
	skipped   int64
}

func NewAlertWorker(client *amqp.Client, notifier Notifier) *AlertWorker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &AlertWorker{
		client:   client,
		notifier: notifier,
		seen:     cache.NewLRUCache[struct{}](1024, time.Hour),
	}
}

// Run consumes alerts until the context is cancelled.
func (w *AlertWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Alert worker started")
	return w.client.ConsumeAlerts(ctx, func(msg *amqp.AlertMessage) error {
		return w.Handle(ctx, msg)
	})
}

// Handle processes a single alert message. A nil return acknowledges the
// message; an error requeues it.
func (w *AlertWorker) Handle(ctx context.Context, msg *amqp.AlertMessage) error {
	if msg.MessageID == "" {
		atomic.AddInt64(&w.skipped, 1)
		slog.WarnContext(ctx, "Dropping alert without message id", log.FieldAlertKind, msg.Kind)
		return nil
	}

	if _, dup := w.seen.Get(msg.MessageID); dup {
		atomic.AddInt64(&w.skipped, 1)
		slog.DebugContext(ctx, "Skipping duplicate alert", log.FieldMessageID, msg.MessageID)
		return nil
	}

	if !msg.Timestamp.IsZero() && time.Since(msg.Timestamp) > maxAlertAge {
		atomic.AddInt64(&w.skipped, 1)
		slog.WarnContext(ctx, "Dropping stale alert",
			log.FieldMessageID, msg.MessageID,
			"age", time.Since(msg.Timestamp).Round(time.Minute))
		return nil
	}

	if err := w.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("notify alert %s: %w", msg.MessageID, err)
	}

	w.seen.Set(msg.MessageID, struct{}{})
	atomic.AddInt64(&w.processed, 1)
	return nil
}

// Stats returns the number of messages processed and skipped so far.
func (w *AlertWorker) Stats() (processed, skipped int64) {
	return atomic.LoadInt64(&w.processed), atomic.LoadInt64(&w.skipped)
}
