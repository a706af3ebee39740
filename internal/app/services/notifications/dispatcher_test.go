package notifications

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage/memory"
)

// fakeSender scripts outcomes per endpoint.
type fakeSender struct {
	mu       sync.Mutex
	statuses map[string]int
	calls    int
}

func (f *fakeSender) Send(_ context.Context, sub notification.PushSubscription, _ PushPayload) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	status, ok := f.statuses[sub.Endpoint]
	if !ok {
		status = 201
	}
	if status >= 400 {
		return status, fmt.Errorf("push endpoint returned %d", status)
	}
	return status, nil
}

func subscribe(t *testing.T, store *memory.Store, userID, endpoint string) notification.PushSubscription {
	t.Helper()
	sub, err := store.SaveSubscription(context.Background(), notification.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256DH:   "key",
		Auth:     "auth",
	})
	if err != nil {
		t.Fatalf("save subscription: %v", err)
	}
	return sub
}

func TestDispatchReportsPerDestination(t *testing.T) {
	store := memory.New()
	subscribe(t, store, "user-1", "https://push.example/ok")
	subscribe(t, store, "user-1", "https://push.example/broken")

	sender := &fakeSender{statuses: map[string]int{"https://push.example/broken": 500}}
	d := NewDispatcher(store, sender, 10, 5, nil)

	results, err := d.Dispatch(context.Background(), "user-1", notification.TypeChatMessage, PushPayload{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	byDest := map[string]notification.DeliveryResult{}
	for _, r := range results {
		byDest[r.Destination] = r
	}
	if !byDest["https://push.example/ok"].Success {
		t.Fatal("ok endpoint should succeed")
	}
	broken := byDest["https://push.example/broken"]
	if broken.Success || broken.StatusCode != 500 || broken.Err == "" {
		t.Fatalf("broken endpoint result wrong: %+v", broken)
	}
}

func TestDispatchDeactivatesGoneEndpoint(t *testing.T) {
	store := memory.New()
	subscribe(t, store, "user-1", "https://push.example/gone")

	sender := &fakeSender{statuses: map[string]int{"https://push.example/gone": 410}}
	d := NewDispatcher(store, sender, 10, 5, nil)

	if _, err := d.Dispatch(context.Background(), "user-1", notification.TypeChatMessage, PushPayload{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	active, err := store.ListActiveSubscriptions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatal("gone endpoint must be deactivated after a single 410")
	}
}

func TestDispatchDeactivatesAfterRepeatedFailures(t *testing.T) {
	store := memory.New()
	subscribe(t, store, "user-1", "https://push.example/flaky")

	sender := &fakeSender{statuses: map[string]int{"https://push.example/flaky": 500}}
	d := NewDispatcher(store, sender, 10, 3, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := d.Dispatch(ctx, "user-1", notification.TypeChatMessage, PushPayload{}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
		active, _ := store.ListActiveSubscriptions(ctx, "user-1")
		if len(active) != 1 {
			t.Fatalf("subscription deactivated too early on attempt %d", i+1)
		}
	}

	if _, err := d.Dispatch(ctx, "user-1", notification.TypeChatMessage, PushPayload{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	active, _ := store.ListActiveSubscriptions(ctx, "user-1")
	if len(active) != 0 {
		t.Fatal("subscription should be deactivated at the failure threshold")
	}
}

func TestDispatchSuccessResetsFailureCount(t *testing.T) {
	store := memory.New()
	sub := subscribe(t, store, "user-1", "https://push.example/recovers")
	ctx := context.Background()

	sub.FailureCount = 2
	if _, err := store.UpdateSubscription(ctx, sub); err != nil {
		t.Fatalf("seed failure count: %v", err)
	}

	d := NewDispatcher(store, &fakeSender{}, 10, 3, nil)
	if _, err := d.Dispatch(ctx, "user-1", notification.TypeChatMessage, PushPayload{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	active, _ := store.ListActiveSubscriptions(ctx, "user-1")
	if len(active) != 1 {
		t.Fatal("subscription should stay active")
	}
	if active[0].FailureCount != 0 {
		t.Fatalf("failure count not reset, got %d", active[0].FailureCount)
	}
}

func TestDispatchNoSubscriptions(t *testing.T) {
	d := NewDispatcher(memory.New(), &fakeSender{}, 10, 5, nil)
	results, err := d.Dispatch(context.Background(), "nobody", notification.TypeChatMessage, PushPayload{})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
