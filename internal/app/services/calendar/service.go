// Package calendar implements event scheduling and reminder fan-out.
package calendar

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	caldom "github.com/Integral-ind/integral-backend/internal/app/domain/calendar"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Notifier receives domain events for fan-out.
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) (notification.Receipt, error)
}

// Service manages calendar events.
type Service struct {
	store    storage.CalendarStore
	notifier Notifier
	log      *logger.Logger
}

// New creates a calendar Service.
func New(store storage.CalendarStore, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("calendar")
	}
	return &Service{store: store, notifier: notifier, log: log}
}

// Create validates and stores an event.
func (s *Service) Create(ctx context.Context, e caldom.Event) (caldom.Event, error) {
	if err := validate(e); err != nil {
		return caldom.Event{}, err
	}
	return s.store.CreateEvent(ctx, e)
}

// Update applies changes to an event. Moving the start time re-arms the
// reminder.
func (s *Service) Update(ctx context.Context, e caldom.Event) (caldom.Event, error) {
	if err := validate(e); err != nil {
		return caldom.Event{}, err
	}
	prev, err := s.store.GetEvent(ctx, e.ID)
	if err != nil {
		return caldom.Event{}, err
	}
	if !prev.StartsAt.Equal(e.StartsAt) {
		e.ReminderSent = false
	} else {
		e.ReminderSent = prev.ReminderSent
	}
	return s.store.UpdateEvent(ctx, e)
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id string) (caldom.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// List returns the user's events in the given range.
func (s *Service) List(ctx context.Context, userID string, from, to time.Time) ([]caldom.Event, error) {
	return s.store.ListEvents(ctx, userID, from, to)
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteEvent(ctx, id)
}

// ScanReminders notifies owners and attendees of events whose reminder
// window has opened, then marks the reminder fired so the next scan skips
// it.
func (s *Service) ScanReminders(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDueReminders(ctx, now)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, e := range due {
		recipients := append([]string{e.OwnerID}, e.Attendees...)
		s.emit(ctx, notification.TypeEventReminder, "", recipients, map[string]any{
			"event_id":    e.ID,
			"event_title": e.Title,
			"starts_at":   e.StartsAt.Format(time.RFC3339),
			"location":    e.Location,
		})

		e.ReminderSent = true
		if _, err := s.store.UpdateEvent(ctx, e); err != nil {
			s.log.WithError(err).WithField("event_id", e.ID).Error("mark reminder sent")
			continue
		}
		fired++
	}
	return fired, nil
}

func validate(e caldom.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return svcerr.BadRequest("title is required")
	}
	if e.OwnerID == "" {
		return svcerr.BadRequest("owner is required")
	}
	if e.StartsAt.IsZero() || e.EndsAt.IsZero() {
		return svcerr.BadRequest("start and end times are required")
	}
	if !e.EndsAt.After(e.StartsAt) {
		return svcerr.BadRequest("event must end after it starts")
	}
	if e.ReminderLead < 0 {
		return svcerr.BadRequest("reminder lead must not be negative")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, typ notification.Type, actorID string, recipients []string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).Error("marshal event data")
		return
	}
	_, err = s.notifier.Notify(ctx, notification.Event{
		Type:       typ,
		ActorID:    actorID,
		Recipients: recipients,
		Data:       raw,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("type", string(typ)).Warn("notify failed")
	}
}
