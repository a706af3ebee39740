package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/internal/metrics"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Dispatcher fans a push payload out to every active subscription of a
// recipient and maintains subscription health from the outcomes.
type Dispatcher struct {
	subs        storage.PushSubscriptionStore
	sender      PushSender
	batchSize   int
	maxFailures int
	log         *logger.Logger
}

// NewDispatcher creates a Dispatcher. batchSize bounds concurrent sends;
// maxFailures is the consecutive-failure count after which a subscription
// is deactivated.
func NewDispatcher(subs storage.PushSubscriptionStore, sender PushSender, batchSize, maxFailures int, log *logger.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if log == nil {
		log = logger.NewDefault("dispatcher")
	}
	return &Dispatcher{
		subs:        subs,
		sender:      sender,
		batchSize:   batchSize,
		maxFailures: maxFailures,
		log:         log,
	}
}

// Dispatch sends payload to every active subscription of userID and returns
// one result per destination. A user with no subscriptions yields no
// results and no error.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, typ notification.Type, payload PushPayload) ([]notification.DeliveryResult, error) {
	subs, err := d.subs.ListActiveSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}

	results := make([]notification.DeliveryResult, len(subs))
	for start := 0; start < len(subs); start += d.batchSize {
		end := start + d.batchSize
		if end > len(subs) {
			end = len(subs)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = d.deliver(ctx, subs[i], typ, payload)
			}(i)
		}
		wg.Wait()
	}
	return results, nil
}

func (d *Dispatcher) deliver(ctx context.Context, sub notification.PushSubscription, typ notification.Type, payload PushPayload) notification.DeliveryResult {
	res := notification.DeliveryResult{
		UserID:      sub.UserID,
		Channel:     notification.ChannelPush,
		Destination: sub.Endpoint,
	}

	status, err := d.sender.Send(ctx, sub, payload)
	res.StatusCode = status
	if err == nil {
		res.Success = true
		metrics.RecordDelivery(string(typ), string(notification.ChannelPush), "ok")
		if sub.FailureCount != 0 {
			sub.FailureCount = 0
			sub.LastSeenAt = time.Now().UTC()
			if _, uerr := d.subs.UpdateSubscription(ctx, sub); uerr != nil {
				d.log.WithError(uerr).Warn("reset subscription failure count")
			}
		}
		return res
	}

	res.Err = err.Error()
	metrics.RecordDelivery(string(typ), string(notification.ChannelPush), "error")

	// 404 and 410 mean the endpoint is gone for good.
	gone := status == 404 || status == 410
	sub.FailureCount++
	if gone || sub.FailureCount >= d.maxFailures {
		sub.Active = false
		metrics.RecordPushDeactivation()
		d.log.WithFields(map[string]interface{}{
			"subscription_id": sub.ID,
			"status":          status,
			"failures":        sub.FailureCount,
		}).Info("deactivating push subscription")
	}
	sub.LastSeenAt = time.Now().UTC()
	if _, uerr := d.subs.UpdateSubscription(ctx, sub); uerr != nil {
		d.log.WithError(uerr).Warn("update subscription after failure")
	}
	return res
}
