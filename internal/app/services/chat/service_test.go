package chat

import (
	"context"
	"strings"
	"testing"

	chatdom "github.com/Integral-ind/integral-backend/internal/app/domain/chat"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
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

func TestCreateConversationIncludesCreator(t *testing.T) {
	svc := New(memory.New(), nil, nil)

	conv, err := svc.CreateConversation(context.Background(), "user-1", chatdom.Conversation{
		Participants: []string{"user-2"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %v", conv.Participants)
	}
	if conv.IsGroup {
		t.Fatal("two-party conversation must not be a group")
	}
}

func TestCreateConversationNeedsTwoPeople(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	_, err := svc.CreateConversation(context.Background(), "user-1", chatdom.Conversation{})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGroupConversationNeedsName(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	_, err := svc.CreateConversation(context.Background(), "user-1", chatdom.Conversation{
		Participants: []string{"user-2", "user-3"},
	})
	if err == nil {
		t.Fatal("expected name requirement for groups")
	}
}

func TestSendMessageNotifiesParticipants(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", chatdom.Conversation{Participants: []string{"user-2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	msg, err := svc.SendMessage(ctx, "user-1", conv.ID, "lunch at noon?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("message not persisted")
	}

	if len(n.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(n.events))
	}
	ev := n.events[0]
	if ev.Type != notification.TypeChatMessage || ev.ActorID != "user-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if gjson.GetBytes(ev.Data, "preview").String() != "lunch at noon?" {
		t.Fatalf("preview missing: %s", ev.Data)
	}
}

func TestSendMessagePreviewTruncated(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", chatdom.Conversation{Participants: []string{"user-2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	long := strings.Repeat("a", 500)
	if _, err := svc.SendMessage(ctx, "user-1", conv.ID, long); err != nil {
		t.Fatalf("send: %v", err)
	}

	preview := gjson.GetBytes(n.events[0].Data, "preview").String()
	if len([]rune(preview)) > previewLen+1 {
		t.Fatalf("preview too long: %d runes", len([]rune(preview)))
	}
}

func TestSendMessageOutsiderForbidden(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", chatdom.Conversation{Participants: []string{"user-2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SendMessage(ctx, "stranger", conv.ID, "hi"); err == nil {
		t.Fatal("outsiders must not post")
	}
}

func TestRingAndMissCall(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", chatdom.Conversation{Participants: []string{"user-2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.RingCall(ctx, "user-1", conv.ID, "call-1"); err != nil {
		t.Fatalf("ring: %v", err)
	}
	if err := svc.MissCall(ctx, "user-1", conv.ID, "call-1", "user-2"); err != nil {
		t.Fatalf("miss: %v", err)
	}

	if len(n.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(n.events))
	}
	if n.events[0].Type != notification.TypeCallIncoming {
		t.Fatalf("unexpected first event %s", n.events[0].Type)
	}
	if n.events[1].Type != notification.TypeCallMissed || n.events[1].Recipients[0] != "user-2" {
		t.Fatalf("unexpected second event %+v", n.events[1])
	}
}

func TestMissCallOutsiderForbidden(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "user-1", chatdom.Conversation{Participants: []string{"user-2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.MissCall(ctx, "stranger", conv.ID, "call-1", "user-2"); err == nil {
		t.Fatal("outside callers must not record missed calls")
	}
	if err := svc.MissCall(ctx, "user-1", conv.ID, "call-1", "stranger"); err == nil {
		t.Fatal("missed calls must target a participant")
	}
	if err := svc.MissCall(ctx, "user-1", "no-such-conversation", "call-1", "user-2"); err == nil {
		t.Fatal("unknown conversation must fail")
	}
	if len(n.events) != 0 {
		t.Fatalf("expected no events, got %d", len(n.events))
	}
}
