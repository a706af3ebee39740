// Package notifications implements the fan-out engine: preference
// resolution, payload construction, push dispatch and the persistent
// email queue, tied together by the Service orchestrator.
package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	"github.com/Integral-ind/integral-backend/internal/app/cache"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/internal/config"
	"github.com/Integral-ind/integral-backend/internal/metrics"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Broadcaster pushes realtime frames to connected clients. Delivery is
// best-effort; a broadcast failure never fails the fan-out.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic, event string, payload map[string]any) error
}

// EmailDirectory resolves a user id to their email address.
type EmailDirectory interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// Service is the notification engine entry point.
type Service struct {
	store      storage.NotificationStore
	resolver   *Resolver
	builder    *Builder
	dispatcher *Dispatcher
	queue      *EmailQueue
	subs       storage.PushSubscriptionStore
	directory  EmailDirectory
	broadcast  Broadcaster
	cache      *cache.Cache
	cooldown   time.Duration
	log        *logger.Logger
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Broadcaster Broadcaster
	Directory   EmailDirectory
	Cache       *cache.Cache
	Logger      *logger.Logger
}

// New wires the engine from its stores and senders.
func New(
	store storage.NotificationStore,
	prefs storage.PreferenceStore,
	subs storage.PushSubscriptionStore,
	emails storage.EmailQueueStore,
	pushSender PushSender,
	emailSender EmailSender,
	cfg config.NotificationsConfig,
	opts Options,
) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewDefault("notifications")
	}

	builder := NewBuilder()
	if cfg.TemplatesPath != "" {
		if err := builder.LoadTemplates(cfg.TemplatesPath); err != nil {
			log.WithError(err).Warn("custom email templates not loaded, using built-ins")
		}
	}

	return &Service{
		store:      store,
		resolver:   NewResolver(prefs),
		builder:    builder,
		dispatcher: NewDispatcher(subs, pushSender, cfg.BatchSize, cfg.PushMaxFailures, log),
		queue:      NewEmailQueue(emails, emailSender, cfg.EmailMaxAttempts, cfg.EmailDrainBatch, log),
		subs:       subs,
		directory:  opts.Directory,
		broadcast:  opts.Broadcaster,
		cache:      opts.Cache,
		cooldown:   cfg.CooldownWindow,
		log:        log,
	}
}

// Preferences exposes the preference resolver for the HTTP layer.
func (s *Service) Preferences() *Resolver { return s.resolver }

// Emails exposes the email queue for the HTTP layer and the drain job.
func (s *Service) Emails() *EmailQueue { return s.queue }

// Notify fans one event out to its recipients across every channel their
// preferences allow. The actor never notifies themselves.
func (s *Service) Notify(ctx context.Context, ev notification.Event) (notification.Receipt, error) {
	if !ev.Type.Valid() {
		return notification.Receipt{}, svcerr.BadRequest(fmt.Sprintf("unknown notification type %q", ev.Type))
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	receipt := notification.Receipt{Type: ev.Type}
	seen := map[string]bool{}
	for _, userID := range ev.Recipients {
		userID = strings.TrimSpace(userID)
		if userID == "" || userID == ev.ActorID || seen[userID] {
			continue
		}
		seen[userID] = true
		receipt.Recipients++
		s.notifyOne(ctx, ev, userID, &receipt)
	}

	s.log.WithFields(map[string]interface{}{
		"type":       string(ev.Type),
		"recipients": receipt.Recipients,
		"delivered":  receipt.Delivered,
		"suppressed": receipt.Suppressed,
		"failed":     receipt.Failed,
	}).Info("event fanned out")
	return receipt, nil
}

func (s *Service) notifyOne(ctx context.Context, ev notification.Event, userID string, receipt *notification.Receipt) {
	channels, err := s.resolver.Resolve(ctx, userID, ev.Type)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("preference lookup failed, defaulting to deliver")
	}

	// In-app row.
	if channels.Allows(notification.ChannelInApp) {
		row := s.builder.InApp(ev, userID)
		created, err := s.store.CreateNotification(ctx, row)
		result := notification.DeliveryResult{
			UserID:  userID,
			Channel: notification.ChannelInApp,
		}
		if err != nil {
			result.Err = err.Error()
			receipt.Failed++
			metrics.RecordDelivery(string(ev.Type), string(notification.ChannelInApp), "error")
			s.log.WithError(err).WithField("user_id", userID).Error("persist in-app notification")
		} else {
			result.Success = true
			result.Destination = created.ID
			receipt.Delivered++
			metrics.RecordDelivery(string(ev.Type), string(notification.ChannelInApp), "ok")
			s.cache.IncrUnread(ctx, userID)
			s.broadcastNew(ctx, userID, created)
		}
		receipt.Results = append(receipt.Results, result)
	} else {
		receipt.Suppressed++
		metrics.RecordSuppressed(string(ev.Type), string(notification.ChannelInApp), "preference")
	}

	// Push.
	if channels.Allows(notification.ChannelPush) {
		if s.cache.Cooldown(ctx, userID, string(ev.Type), s.cooldown) {
			receipt.Suppressed++
			metrics.RecordSuppressed(string(ev.Type), string(notification.ChannelPush), "cooldown")
		} else {
			results, err := s.dispatcher.Dispatch(ctx, userID, ev.Type, s.builder.Push(ev))
			if err != nil {
				s.log.WithError(err).WithField("user_id", userID).Error("push dispatch")
				receipt.Failed++
			}
			for _, r := range results {
				if r.Success {
					receipt.Delivered++
				} else {
					receipt.Failed++
				}
			}
			receipt.Results = append(receipt.Results, results...)
		}
	} else {
		receipt.Suppressed++
		metrics.RecordSuppressed(string(ev.Type), string(notification.ChannelPush), "preference")
	}

	// Email.
	if channels.Allows(notification.ChannelEmail) {
		s.enqueueEmail(ctx, ev, userID, receipt)
	} else {
		receipt.Suppressed++
		metrics.RecordSuppressed(string(ev.Type), string(notification.ChannelEmail), "preference")
	}
}

func (s *Service) enqueueEmail(ctx context.Context, ev notification.Event, userID string, receipt *notification.Receipt) {
	if s.directory == nil {
		return
	}
	addr, err := s.directory.EmailFor(ctx, userID)
	if err != nil || addr == "" {
		metrics.RecordSuppressed(string(ev.Type), string(notification.ChannelEmail), "no_address")
		receipt.Suppressed++
		return
	}

	subject, body := s.builder.Email(ev)
	item, err := s.queue.Enqueue(ctx, ev.Type, addr, subject, body)
	result := notification.DeliveryResult{
		UserID:  userID,
		Channel: notification.ChannelEmail,
	}
	if err != nil {
		result.Err = err.Error()
		receipt.Failed++
		metrics.RecordDelivery(string(ev.Type), string(notification.ChannelEmail), "error")
		s.log.WithError(err).WithField("user_id", userID).Error("enqueue email")
	} else {
		result.Success = true
		result.Destination = item.ID
		receipt.Delivered++
		metrics.RecordDelivery(string(ev.Type), string(notification.ChannelEmail), "queued")
	}
	receipt.Results = append(receipt.Results, result)
}

func (s *Service) broadcastNew(ctx context.Context, userID string, n notification.Notification) {
	if s.broadcast == nil {
		return
	}
	err := s.broadcast.Broadcast(ctx, "user:"+userID, "notification", map[string]any{
		"id":         n.ID,
		"type":       string(n.Type),
		"title":      n.Title,
		"body":       n.Body,
		"link":       n.Link,
		"created_at": n.CreatedAt,
	})
	if err != nil {
		s.log.WithError(err).Debug("realtime broadcast failed")
	}
}

// List returns a page of a user's notifications.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]notification.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListNotifications(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount returns the user's unread total, served from cache when warm.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if n, ok := s.cache.GetUnread(ctx, userID); ok {
		return n, nil
	}
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.SetUnread(ctx, userID, n)
	return n, nil
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.store.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.cache.InvalidateUnread(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification read and returns the count.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.InvalidateUnread(ctx, userID)
	return n, nil
}

// RegisterSubscription saves a push subscription for the user.
func (s *Service) RegisterSubscription(ctx context.Context, sub notification.PushSubscription) (notification.PushSubscription, error) {
	if strings.TrimSpace(sub.Endpoint) == "" {
		return notification.PushSubscription{}, svcerr.BadRequest("endpoint is required")
	}
	if sub.P256DH == "" || sub.Auth == "" {
		return notification.PushSubscription{}, svcerr.BadRequest("p256dh and auth keys are required")
	}
	return s.subs.SaveSubscription(ctx, sub)
}

// ListSubscriptions returns the user's active subscriptions.
func (s *Service) ListSubscriptions(ctx context.Context, userID string) ([]notification.PushSubscription, error) {
	return s.subs.ListActiveSubscriptions(ctx, userID)
}

// RemoveSubscription deletes one of the user's subscriptions.
func (s *Service) RemoveSubscription(ctx context.Context, userID, id string) error {
	return s.subs.DeleteSubscription(ctx, userID, id)
}
