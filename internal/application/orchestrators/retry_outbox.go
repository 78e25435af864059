package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "villagefit/internal/adapters/email"
	domain "villagefit/internal/domain/outbox"
)

// RetryOutboxStore defines the outbox store interface needed for
// retries.
type RetryOutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
	Save(ctx context.Context, value domain.Entry) error
}

// RetryOutboxDeps holds dependencies for the outbox retry pass.
type RetryOutboxDeps struct {
	OutboxStore RetryOutboxStore
	Sender      emailAdapter.Sender
	From        string
	ReplyTo     string
	BatchSize   int              // defaults to 10
	Now         func() time.Time // injectable for testing
}

// RetryOutboxResult reports how a retry pass went.
type RetryOutboxResult struct {
	Processed int
	Delivered int
	Failed    int
}

// ExecuteRetryOutbox re-sends parked notifications. Entries that fail
// again are kept for the next pass until their attempt budget runs
// out. Invoked from the admin surface; there is no background timer.
// PRE: Context is valid
// POST: Retryable entries attempted once each, statuses updated
func ExecuteRetryOutbox(ctx context.Context, deps RetryOutboxDeps) (RetryOutboxResult, error) {
	batch := deps.BatchSize
	if batch <= 0 {
		batch = 10
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	entries, err := deps.OutboxStore.ListPending(ctx, batch)
	if err != nil {
		return RetryOutboxResult{}, fmt.Errorf("list pending outbox entries: %w", err)
	}

	var result RetryOutboxResult
	for _, entry := range entries {
		if !entry.CanRetry() {
			continue
		}
		result.Processed++

		var data map[string]string
		if err := json.Unmarshal([]byte(entry.Payload), &data); err != nil {
			entry.MarkAttempt(now())
			entry.MarkFailed(fmt.Errorf("bad payload: %w", err))
			result.Failed++
			saveOutboxEntry(ctx, deps.OutboxStore, entry)
			continue
		}

		subject, html, err := renderNotification(entry.Kind, data)
		if err != nil {
			entry.MarkAttempt(now())
			entry.MarkFailed(err)
			result.Failed++
			saveOutboxEntry(ctx, deps.OutboxStore, entry)
			continue
		}

		entry.MarkAttempt(now())
		_, err = deps.Sender.Send(ctx, emailAdapter.SendRequest{
			To:      []string{entry.Recipient},
			From:    deps.From,
			Subject: subject,
			HTML:    html,
			ReplyTo: deps.ReplyTo,
		})
		if err != nil {
			entry.MarkFailed(err)
			result.Failed++
			slog.Warn("outbox_retry_failed", "entry_id", entry.ID, "kind", entry.Kind, "attempt", entry.Attempts, "error", err.Error())
		} else {
			entry.MarkSuccess()
			result.Delivered++
			slog.Info("outbox_retry_delivered", "entry_id", entry.ID, "kind", entry.Kind)
		}
		saveOutboxEntry(ctx, deps.OutboxStore, entry)
	}

	return result, nil
}

func saveOutboxEntry(ctx context.Context, store RetryOutboxStore, entry domain.Entry) {
	if err := store.Save(ctx, entry); err != nil {
		slog.Error("outbox_save_failed", "entry_id", entry.ID, "error", err.Error())
	}
}
