package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/analytics"
)

type recordingNotifier struct {
	calls []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, msg *amqp.AlertMessage) error {
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, msg.MessageID)
	return nil
}

func alertMessage(id string) *amqp.AlertMessage {
	return &amqp.AlertMessage{
		MessageID:      id,
		WorkspaceScope: []string{"ws1"},
		Kind:           analytics.AlertBudgetExceeded,
		Severity:       analytics.SeverityCritical,
		Message:        "Budget exceeded",
		Timestamp:      time.Now(),
	}
}

func TestAlertWorker_Handle(t *testing.T) {
	notifier := &recordingNotifier{}
	w := NewAlertWorker(nil, notifier)

	if err := w.Handle(context.Background(), alertMessage("m1")); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "m1" {
		t.Errorf("notifier calls = %v, want [m1]", notifier.calls)
	}

	processed, skipped := w.Stats()
	if processed != 1 || skipped != 0 {
		t.Errorf("stats = (%d, %d), want (1, 0)", processed, skipped)
	}
}

func TestAlertWorker_Handle_DeduplicatesRedelivery(t *testing.T) {
	notifier := &recordingNotifier{}
	w := NewAlertWorker(nil, notifier)

	msg := alertMessage("m1")
	if err := w.Handle(context.Background(), msg); err != nil {
		t.Fatalf("first Handle returned error: %v", err)
	}
	if err := w.Handle(context.Background(), msg); err != nil {
		t.Fatalf("duplicate Handle should ack silently, got error: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Errorf("notifier calls = %v, want exactly one", notifier.calls)
	}
	processed, skipped := w.Stats()
	if processed != 1 || skipped != 1 {
		t.Errorf("stats = (%d, %d), want (1, 1)", processed, skipped)
	}
}

func TestAlertWorker_Handle_NotifierErrorRequeues(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	w := NewAlertWorker(nil, notifier)

	if err := w.Handle(context.Background(), alertMessage("m1")); err == nil {
		t.Fatal("Handle should propagate notifier errors for requeue")
	}

	// The failed message must not be marked as seen.
	notifier.err = nil
	if err := w.Handle(context.Background(), alertMessage("m1")); err != nil {
		t.Fatalf("retry Handle returned error: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifier calls = %v, want the retried delivery", notifier.calls)
	}
}

func TestAlertWorker_Handle_DropsStaleAndAnonymous(t *testing.T) {
	notifier := &recordingNotifier{}
	w := NewAlertWorker(nil, notifier)

	stale := alertMessage("old")
	stale.Timestamp = time.Now().Add(-48 * time.Hour)
	if err := w.Handle(context.Background(), stale); err != nil {
		t.Fatalf("stale alert should be acked, got error: %v", err)
	}

	anonymous := alertMessage("")
	if err := w.Handle(context.Background(), anonymous); err != nil {
		t.Fatalf("alert without id should be acked, got error: %v", err)
	}

	if len(notifier.calls) != 0 {
		t.Errorf("notifier calls = %v, want none", notifier.calls)
	}
	processed, skipped := w.Stats()
	if processed != 0 || skipped != 2 {
		t.Errorf("stats = (%d, %d), want (0, 2)", processed, skipped)
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), alertMessage("m1")); err != nil {
		t.Fatalf("LogNotifier should never fail: %v", err)
	}
}
