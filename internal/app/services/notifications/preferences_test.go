package notifications

import (
	"context"
	"testing"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage/memory"
)

func TestResolveDefaultsToAllChannels(t *testing.T) {
	r := NewResolver(memory.New())

	set, err := r.Resolve(context.Background(), "user-1", notification.TypeChatMessage)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, ch := range notification.Channels() {
		if !set.Allows(ch) {
			t.Fatalf("expected channel %s allowed for user without preferences", ch)
		}
	}
}

func TestResolveDisabledChannel(t *testing.T) {
	store := memory.New()
	r := NewResolver(store)
	ctx := context.Background()

	_, err := r.Update(ctx, notification.Preference{
		UserID: "user-1",
		Push:   map[notification.Type]bool{notification.TypeChatMessage: false},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	set, err := r.Resolve(ctx, "user-1", notification.TypeChatMessage)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if set.Allows(notification.ChannelPush) {
		t.Fatal("push should be disabled")
	}
	if !set.Allows(notification.ChannelInApp) || !set.Allows(notification.ChannelEmail) {
		t.Fatal("other channels should stay enabled")
	}

	// A type not named in the matrix stays allowed everywhere.
	set, err = r.Resolve(ctx, "user-1", notification.TypeTeamInvite)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !set.Allows(notification.ChannelPush) {
		t.Fatal("unlisted type should default to allowed")
	}
}

func TestResolveMuteAll(t *testing.T) {
	store := memory.New()
	r := NewResolver(store)
	ctx := context.Background()

	if _, err := r.Update(ctx, notification.Preference{UserID: "user-1", MuteAll: true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	set, err := r.Resolve(ctx, "user-1", notification.TypeTaskAssigned)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, ch := range notification.Channels() {
		if set.Allows(ch) {
			t.Fatalf("mute-all should suppress channel %s", ch)
		}
	}
}

func TestUpdateRejectsUnknownType(t *testing.T) {
	r := NewResolver(memory.New())

	_, err := r.Update(context.Background(), notification.Preference{
		UserID: "user-1",
		Email:  map[notification.Type]bool{"bogus": true},
	})
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestGetReturnsPermissiveDefault(t *testing.T) {
	r := NewResolver(memory.New())

	pref, err := r.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if pref.UserID != "user-1" {
		t.Fatalf("unexpected user id %q", pref.UserID)
	}
	if pref.MuteAll {
		t.Fatal("default preference must not be muted")
	}
}
