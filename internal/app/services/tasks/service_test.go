package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/domain/task"
	"github.com/Integral-ind/integral-backend/internal/app/storage/memory"
	"github.com/tidwall/gjson"
)

type recordingNotifier struct {
	events []notification.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notification.Event) (notification.Receipt, error) {
	r.events = append(r.events, ev)
	return notification.Receipt{}, nil
}

func TestCreateNotifiesAssignee(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)

	created, err := svc.Create(context.Background(), task.Task{
		OwnerID:    "owner-1",
		AssigneeID: "user-2",
		Title:      "Write docs",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != task.StatusTodo {
		t.Fatalf("expected default status todo, got %s", created.Status)
	}

	if len(n.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(n.events))
	}
	ev := n.events[0]
	if ev.Type != notification.TypeTaskAssigned {
		t.Fatalf("unexpected event type %s", ev.Type)
	}
	if len(ev.Recipients) != 1 || ev.Recipients[0] != "user-2" {
		t.Fatalf("unexpected recipients %v", ev.Recipients)
	}
	if gjson.GetBytes(ev.Data, "task_title").String() != "Write docs" {
		t.Fatalf("event data missing title: %s", ev.Data)
	}
}

func TestCreateSelfAssignedIsQuiet(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)

	_, err := svc.Create(context.Background(), task.Task{
		OwnerID:    "owner-1",
		AssigneeID: "owner-1",
		Title:      "Solo work",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(n.events) != 0 {
		t.Fatalf("self-assignment must not notify, got %d events", len(n.events))
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	if _, err := svc.Create(context.Background(), task.Task{OwnerID: "o"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCompleteNotifiesOnce(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, task.Task{OwnerID: "owner-1", Title: "Finish report"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Status = task.StatusDone
	updated, err := svc.Update(ctx, "owner-1", created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Fatal("completed task must record a completion time")
	}
	if len(n.events) != 1 || n.events[0].Type != notification.TypeTaskCompleted {
		t.Fatalf("expected one completion event, got %v", n.events)
	}

	// Saving an already-done task again stays quiet.
	if _, err := svc.Update(ctx, "owner-1", updated); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(n.events) != 1 {
		t.Fatalf("completion must only be announced once, got %d events", len(n.events))
	}
}

func TestReassignNotifiesNewAssignee(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, task.Task{OwnerID: "owner-1", Title: "Rotate keys"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.AssigneeID = "user-3"
	if _, err := svc.Update(ctx, "owner-1", created); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(n.events) != 1 || n.events[0].Type != notification.TypeTaskAssigned {
		t.Fatalf("expected an assignment event, got %v", n.events)
	}
}

func TestScanDueSoon(t *testing.T) {
	store := memory.New()
	n := &recordingNotifier{}
	svc := New(store, n, nil)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	due := now.Add(6 * time.Hour)
	far := now.Add(72 * time.Hour)

	if _, err := svc.Create(ctx, task.Task{OwnerID: "o", AssigneeID: "a", Title: "Due soon", DueDate: &due}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, task.Task{OwnerID: "o", AssigneeID: "b", Title: "Far off", DueDate: &far}); err != nil {
		t.Fatalf("create: %v", err)
	}
	n.events = nil

	count, err := svc.ScanDueSoon(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reminder, got %d", count)
	}
	if n.events[0].Type != notification.TypeTaskDueSoon || n.events[0].Recipients[0] != "a" {
		t.Fatalf("unexpected event %+v", n.events[0])
	}

	// A second scan does not repeat the reminder.
	count, err = svc.ScanDueSoon(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if count != 0 {
		t.Fatalf("reminder must fire once, got %d more", count)
	}
}
