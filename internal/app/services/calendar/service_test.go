package calendar

import (
	"context"
	"testing"
	"time"

	caldom "github.com/Integral-ind/integral-backend/internal/app/domain/calendar"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage/memory"
)

type recordingNotifier struct {
	events []notification.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notification.Event) (notification.Receipt, error) {
	r.events = append(r.events, ev)
	return notification.Receipt{}, nil
}

func TestCreateValidation(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()
	now := time.Now()

	cases := []caldom.Event{
		{OwnerID: "o", StartsAt: now, EndsAt: now.Add(time.Hour)},                   // missing title
		{Title: "Standup", StartsAt: now, EndsAt: now.Add(time.Hour)},               // missing owner
		{Title: "Standup", OwnerID: "o", StartsAt: now, EndsAt: now},                // zero length
		{Title: "Standup", OwnerID: "o", StartsAt: now.Add(time.Hour), EndsAt: now}, // inverted
	}
	for i, e := range cases {
		if _, err := svc.Create(ctx, e); err == nil {
			t.Fatalf("case %d should fail validation", i)
		}
	}
}

func TestScanRemindersFiresOnce(t *testing.T) {
	store := memory.New()
	n := &recordingNotifier{}
	svc := New(store, n, nil)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 9, 50, 0, 0, time.UTC)
	start := now.Add(10 * time.Minute)

	_, err := svc.Create(ctx, caldom.Event{
		OwnerID:      "owner-1",
		Title:        "Sprint review",
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
		Attendees:    []string{"user-2"},
		ReminderLead: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fired, err := svc.ScanReminders(ctx, now)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected 1 reminder, got %d", fired)
	}
	ev := n.events[0]
	if ev.Type != notification.TypeEventReminder {
		t.Fatalf("unexpected event type %s", ev.Type)
	}
	if len(ev.Recipients) != 2 {
		t.Fatalf("owner and attendee should be notified, got %v", ev.Recipients)
	}

	fired, err = svc.ScanReminders(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if fired != 0 {
		t.Fatalf("reminder must only fire once, got %d more", fired)
	}
}

func TestScanRemindersSkipsOutsideWindow(t *testing.T) {
	store := memory.New()
	n := &recordingNotifier{}
	svc := New(store, n, nil)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)

	_, err := svc.Create(ctx, caldom.Event{
		OwnerID:      "owner-1",
		Title:        "Later meeting",
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
		ReminderLead: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fired, err := svc.ScanReminders(ctx, now)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if fired != 0 {
		t.Fatalf("reminder fired outside its window: %d", fired)
	}
}

func TestUpdateMovingStartRearmsReminder(t *testing.T) {
	store := memory.New()
	n := &recordingNotifier{}
	svc := New(store, n, nil)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 9, 50, 0, 0, time.UTC)
	start := now.Add(10 * time.Minute)

	created, err := svc.Create(ctx, caldom.Event{
		OwnerID:      "owner-1",
		Title:        "Movable",
		StartsAt:     start,
		EndsAt:       start.Add(time.Hour),
		ReminderLead: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ScanReminders(ctx, now); err != nil {
		t.Fatalf("scan: %v", err)
	}

	created.StartsAt = start.Add(24 * time.Hour)
	created.EndsAt = created.StartsAt.Add(time.Hour)
	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ReminderSent {
		t.Fatal("moving the start must re-arm the reminder")
	}
}
