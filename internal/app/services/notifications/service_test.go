package notifications

import (
	"context"
	"sync"
	"testing"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage/memory"
	"github.com/Integral-ind/integral-backend/internal/config"
)

type fakeDirectory struct {
	emails map[string]string
}

func (f *fakeDirectory) EmailFor(_ context.Context, userID string) (string, error) {
	return f.emails[userID], nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	topics []string
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, topic, _ string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return nil
}

func newTestService(store *memory.Store, sender PushSender, mailer EmailSender, dir EmailDirectory, bc Broadcaster) *Service {
	cfg := config.NotificationsConfig{
		BatchSize:        10,
		PushMaxFailures:  3,
		EmailMaxAttempts: 3,
		EmailDrainBatch:  25,
	}
	return New(store, store, store, store, sender, mailer, cfg, Options{
		Broadcaster: bc,
		Directory:   dir,
	})
}

func TestNotifyFansOutAllChannels(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	subscribe(t, store, "user-1", "https://push.example/u1")

	sender := &fakeSender{}
	mailer := &fakeMailer{}
	bc := &fakeBroadcaster{}
	svc := newTestService(store, sender, mailer, &fakeDirectory{emails: map[string]string{"user-1": "u1@example.com"}}, bc)

	receipt, err := svc.Notify(ctx, notification.Event{
		Type:       notification.TypeTaskAssigned,
		ActorID:    "actor-1",
		Recipients: []string{"user-1"},
		Data:       []byte(`{"actor_name":"Ana","task_title":"Write docs","task_id":"t-1"}`),
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if receipt.Recipients != 1 {
		t.Fatalf("expected 1 recipient, got %d", receipt.Recipients)
	}
	// In-app row, one push endpoint, one queued email.
	if receipt.Delivered != 3 {
		t.Fatalf("expected 3 deliveries, got %d (%+v)", receipt.Delivered, receipt.Results)
	}
	if receipt.Failed != 0 || receipt.Suppressed != 0 {
		t.Fatalf("unexpected failures/suppressions: %+v", receipt)
	}

	rows, err := store.ListNotifications(ctx, "user-1", false, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Type != notification.TypeTaskAssigned {
		t.Fatalf("in-app row not persisted: %v", rows)
	}

	pending, _ := store.CountPendingEmails(ctx)
	if pending != 1 {
		t.Fatalf("expected 1 queued email, got %d", pending)
	}

	if len(bc.topics) != 1 || bc.topics[0] != "user:user-1" {
		t.Fatalf("unexpected broadcast topics %v", bc.topics)
	}
}

func TestNotifySkipsActorAndDuplicates(t *testing.T) {
	store := memory.New()
	svc := newTestService(store, &fakeSender{}, &fakeMailer{}, nil, nil)

	receipt, err := svc.Notify(context.Background(), notification.Event{
		Type:       notification.TypeTeamMemberJoined,
		ActorID:    "actor-1",
		Recipients: []string{"actor-1", "user-2", "user-2", "", "user-3"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if receipt.Recipients != 2 {
		t.Fatalf("expected 2 distinct recipients, got %d", receipt.Recipients)
	}
}

func TestNotifyHonoursPreferences(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	subscribe(t, store, "user-1", "https://push.example/u1")

	sender := &fakeSender{}
	mailer := &fakeMailer{}
	svc := newTestService(store, sender, mailer, &fakeDirectory{emails: map[string]string{"user-1": "u1@example.com"}}, nil)

	_, err := svc.Preferences().Update(ctx, notification.Preference{
		UserID: "user-1",
		Push:   map[notification.Type]bool{notification.TypeChatMessage: false},
		Email:  map[notification.Type]bool{notification.TypeChatMessage: false},
	})
	if err != nil {
		t.Fatalf("update preferences: %v", err)
	}

	receipt, err := svc.Notify(ctx, notification.Event{
		Type:       notification.TypeChatMessage,
		ActorID:    "actor-1",
		Recipients: []string{"user-1"},
		Data:       []byte(`{"actor_name":"Dev","preview":"hi"}`),
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	if receipt.Delivered != 1 {
		t.Fatalf("expected only the in-app delivery, got %d", receipt.Delivered)
	}
	if receipt.Suppressed != 2 {
		t.Fatalf("expected push and email suppressed, got %d", receipt.Suppressed)
	}
	if sender.calls != 0 {
		t.Fatalf("push sender must not be called, got %d calls", sender.calls)
	}
	if pending, _ := store.CountPendingEmails(ctx); pending != 0 {
		t.Fatalf("no email should be queued, got %d", pending)
	}
}

func TestNotifyMuteAllSuppressesEverything(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	svc := newTestService(store, &fakeSender{}, &fakeMailer{}, nil, nil)

	if _, err := svc.Preferences().Update(ctx, notification.Preference{UserID: "user-1", MuteAll: true}); err != nil {
		t.Fatalf("update preferences: %v", err)
	}

	receipt, err := svc.Notify(ctx, notification.Event{
		Type:       notification.TypeTaskCompleted,
		Recipients: []string{"user-1"},
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if receipt.Delivered != 0 {
		t.Fatalf("muted user must get nothing, got %d deliveries", receipt.Delivered)
	}
	rows, _ := store.ListNotifications(ctx, "user-1", false, 10, 0)
	if len(rows) != 0 {
		t.Fatal("muted user must not get an in-app row")
	}
}

func TestNotifyRejectsUnknownType(t *testing.T) {
	svc := newTestService(memory.New(), &fakeSender{}, &fakeMailer{}, nil, nil)
	_, err := svc.Notify(context.Background(), notification.Event{Type: "bogus", Recipients: []string{"u"}})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestUnreadLifecycle(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	svc := newTestService(store, &fakeSender{}, &fakeMailer{}, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ctx, notification.Event{
			Type:       notification.TypeChatMessage,
			Recipients: []string{"user-1"},
			Data:       []byte(`{"actor_name":"Dev","preview":"hi"}`),
		})
		if err != nil {
			t.Fatalf("notify %d: %v", i, err)
		}
	}

	n, err := svc.UnreadCount(ctx, "user-1")
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 unread, got %d", n)
	}

	rows, _ := svc.List(ctx, "user-1", true, 10, 0)
	if len(rows) != 3 {
		t.Fatalf("expected 3 unread rows, got %d", len(rows))
	}

	if err := svc.MarkRead(ctx, "user-1", rows[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, "user-1"); n != 2 {
		t.Fatalf("expected 2 unread after mark-read, got %d", n)
	}

	marked, err := svc.MarkAllRead(ctx, "user-1")
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if marked != 2 {
		t.Fatalf("expected 2 marked, got %d", marked)
	}
	if n, _ := svc.UnreadCount(ctx, "user-1"); n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}
}

func TestRegisterSubscriptionValidation(t *testing.T) {
	svc := newTestService(memory.New(), &fakeSender{}, &fakeMailer{}, nil, nil)
	ctx := context.Background()

	_, err := svc.RegisterSubscription(ctx, notification.PushSubscription{UserID: "u", P256DH: "k", Auth: "a"})
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}

	sub, err := svc.RegisterSubscription(ctx, notification.PushSubscription{
		UserID: "u", Endpoint: "https://push.example/e", P256DH: "k", Auth: "a",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !sub.Active || sub.ID == "" {
		t.Fatalf("unexpected subscription %+v", sub)
	}

	// Re-registering the same endpoint reactivates instead of duplicating.
	again, err := svc.RegisterSubscription(ctx, notification.PushSubscription{
		UserID: "u", Endpoint: "https://push.example/e", P256DH: "k2", Auth: "a2",
	})
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if again.ID != sub.ID {
		t.Fatalf("expected upsert by endpoint, got new id %s", again.ID)
	}

	subs, _ := svc.ListSubscriptions(ctx, "u")
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}
}
