package notifications

import (
	"context"
	"fmt"
	"time"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/internal/metrics"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// retryBase is the delay before the first retry; each further retry doubles it.
const retryBase = time.Minute

// EmailQueue persists outbound emails and drains them with retries.
type EmailQueue struct {
	store       storage.EmailQueueStore
	sender      EmailSender
	maxAttempts int
	drainBatch  int
	log         *logger.Logger
	now         func() time.Time
}

// NewEmailQueue creates an EmailQueue.
func NewEmailQueue(store storage.EmailQueueStore, sender EmailSender, maxAttempts, drainBatch int, log *logger.Logger) *EmailQueue {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if drainBatch <= 0 {
		drainBatch = 25
	}
	if log == nil {
		log = logger.NewDefault("email-queue")
	}
	return &EmailQueue{
		store:       store,
		sender:      sender,
		maxAttempts: maxAttempts,
		drainBatch:  drainBatch,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue stores a pending email for the next drain pass.
func (q *EmailQueue) Enqueue(ctx context.Context, typ notification.Type, recipient, subject, body string) (notification.EmailQueueItem, error) {
	if recipient == "" {
		return notification.EmailQueueItem{}, fmt.Errorf("recipient is required")
	}
	item, err := q.store.EnqueueEmail(ctx, notification.EmailQueueItem{
		Type:         typ,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		Status:       notification.EmailPending,
		MaxAttempts:  q.maxAttempts,
		ScheduledFor: q.now(),
	})
	if err != nil {
		return notification.EmailQueueItem{}, err
	}
	q.updateDepth(ctx)
	return item, nil
}

// Get returns one queue item.
func (q *EmailQueue) Get(ctx context.Context, id string) (notification.EmailQueueItem, error) {
	return q.store.GetEmail(ctx, id)
}

// Cancel moves a pending item to cancelled. Items in a terminal state
// cannot be cancelled.
func (q *EmailQueue) Cancel(ctx context.Context, id string) (notification.EmailQueueItem, error) {
	item, err := q.store.GetEmail(ctx, id)
	if err != nil {
		return notification.EmailQueueItem{}, err
	}
	if item.Status.Terminal() {
		return notification.EmailQueueItem{}, svcerr.Conflict(
			fmt.Sprintf("email %s is already %s", id, item.Status))
	}
	item.Status = notification.EmailCancelled
	item, err = q.store.UpdateEmail(ctx, item)
	if err != nil {
		return notification.EmailQueueItem{}, err
	}
	metrics.RecordEmailOutcome("cancelled", item.Attempts)
	q.updateDepth(ctx)
	return item, nil
}

// Drain sends every due pending email once. Failures are rescheduled with
// exponential backoff until the attempt budget is spent, then marked
// failed. Returns the number of emails sent.
func (q *EmailQueue) Drain(ctx context.Context) (int, error) {
	now := q.now()
	due, err := q.store.ListDueEmails(ctx, now, q.drainBatch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, item := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		item.Attempts++
		sendErr := q.sender.Send(ctx, item.Recipient, item.Subject, item.Body)
		if sendErr == nil {
			item.Status = notification.EmailSent
			item.LastError = ""
			metrics.RecordEmailOutcome("sent", item.Attempts)
			sent++
		} else {
			item.LastError = sendErr.Error()
			if item.Attempts >= item.MaxAttempts {
				item.Status = notification.EmailFailed
				metrics.RecordEmailOutcome("failed", item.Attempts)
				q.log.WithError(sendErr).WithField("email_id", item.ID).Warn("email failed permanently")
			} else {
				item.ScheduledFor = now.Add(retryBase << (item.Attempts - 1))
				metrics.RecordEmailOutcome("retried", item.Attempts)
				q.log.WithError(sendErr).WithFields(map[string]interface{}{
					"email_id": item.ID,
					"attempt":  item.Attempts,
					"next_try": item.ScheduledFor,
				}).Info("email send failed, rescheduled")
			}
		}

		if _, err := q.store.UpdateEmail(ctx, item); err != nil {
			q.log.WithError(err).WithField("email_id", item.ID).Error("persist email outcome")
		}
	}

	q.updateDepth(ctx)
	return sent, nil
}

func (q *EmailQueue) updateDepth(ctx context.Context) {
	if n, err := q.store.CountPendingEmails(ctx); err == nil {
		metrics.SetEmailQueueDepth(n)
	}
}
