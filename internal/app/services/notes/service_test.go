package notes

import (
	"context"
	"testing"

	notedom "github.com/Integral-ind/integral-backend/internal/app/domain/note"
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

func TestShareNotifiesNewReaders(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, notedom.Note{OwnerID: "owner-1", Title: "Roadmap"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	shared, err := svc.Share(ctx, "owner-1", created.ID, []string{"user-2", "user-3", "owner-1"})
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if len(shared.SharedWith) != 2 {
		t.Fatalf("expected 2 readers, got %v", shared.SharedWith)
	}

	if len(n.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(n.events))
	}
	ev := n.events[0]
	if ev.Type != notification.TypeNoteShared || len(ev.Recipients) != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}

	// Re-sharing with the same users is quiet.
	n.events = nil
	if _, err := svc.Share(ctx, "owner-1", created.ID, []string{"user-2"}); err != nil {
		t.Fatalf("re-share: %v", err)
	}
	if len(n.events) != 0 {
		t.Fatal("re-sharing must not notify again")
	}
}

func TestShareRequiresOwnership(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, notedom.Note{OwnerID: "owner-1", Title: "Private"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Share(ctx, "user-2", created.ID, []string{"user-3"}); err == nil {
		t.Fatal("only the owner may share")
	}
}

func TestGetRespectsSharing(t *testing.T) {
	svc := New(memory.New(), &recordingNotifier{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, notedom.Note{OwnerID: "owner-1", Title: "Shared"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, "user-2", created.ID); err == nil {
		t.Fatal("unshared note must not be readable by others")
	}

	if _, err := svc.Share(ctx, "owner-1", created.ID, []string{"user-2"}); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := svc.Get(ctx, "user-2", created.ID); err != nil {
		t.Fatalf("shared note should be readable: %v", err)
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, notedom.Note{OwnerID: "owner-1", Title: "Mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, "user-2", created.ID); err == nil {
		t.Fatal("only the owner may delete")
	}
	if err := svc.Delete(ctx, "owner-1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
