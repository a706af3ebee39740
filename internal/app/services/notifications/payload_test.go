package notifications

import (
	"strings"
	"testing"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
)

func TestInAppTaskAssigned(t *testing.T) {
	b := NewBuilder()
	ev := notification.Event{
		Type:    notification.TypeTaskAssigned,
		ActorID: "actor-1",
		Data:    []byte(`{"actor_name":"Priya","task_title":"Ship release","task_id":"t-9"}`),
	}

	row := b.InApp(ev, "user-1")
	if row.UserID != "user-1" {
		t.Fatalf("unexpected user id %q", row.UserID)
	}
	if row.Type != notification.TypeTaskAssigned {
		t.Fatalf("unexpected type %q", row.Type)
	}
	if !strings.Contains(row.Body, "Priya") || !strings.Contains(row.Body, "Ship release") {
		t.Fatalf("body missing context: %q", row.Body)
	}
	if row.Link != "/tasks/t-9" {
		t.Fatalf("unexpected link %q", row.Link)
	}
	if row.Metadata["task_id"] != "t-9" {
		t.Fatalf("metadata not carried over: %v", row.Metadata)
	}
}

func TestInAppToleratesMissingContext(t *testing.T) {
	b := NewBuilder()
	row := b.InApp(notification.Event{Type: notification.TypeChatMessage}, "user-1")
	if row.Title == "" {
		t.Fatal("title must not be empty for sparse events")
	}
}

func TestPushIncomingCallIsInteractive(t *testing.T) {
	b := NewBuilder()
	p := b.Push(notification.Event{
		Type: notification.TypeCallIncoming,
		Data: []byte(`{"actor_name":"Dev","call_id":"c-1"}`),
	})

	if !p.RequireInteraction {
		t.Fatal("incoming call must require interaction")
	}
	if p.Urgency != "high" {
		t.Fatalf("unexpected urgency %q", p.Urgency)
	}
	if p.TTL != 60 {
		t.Fatalf("call pushes should expire quickly, got ttl %d", p.TTL)
	}
	if len(p.Actions) != 2 || p.Actions[0].Action != "accept" || p.Actions[1].Action != "decline" {
		t.Fatalf("unexpected actions %v", p.Actions)
	}
	if p.Tag != "call-c-1" {
		t.Fatalf("unexpected tag %q", p.Tag)
	}
}

func TestPushChatMessageCollapsesByConversation(t *testing.T) {
	b := NewBuilder()
	p := b.Push(notification.Event{
		Type: notification.TypeChatMessage,
		Data: []byte(`{"actor_name":"Dev","conversation_id":"conv-7","preview":"hey"}`),
	})

	if p.Tag != "chat-conv-7" {
		t.Fatalf("unexpected tag %q", p.Tag)
	}
	if p.RequireInteraction {
		t.Fatal("chat messages must not demand interaction")
	}
	if p.Data["type"] != "chat_message" {
		t.Fatalf("payload data missing type: %v", p.Data)
	}
}

func TestEmailTemplateInterpolation(t *testing.T) {
	b := NewBuilder()
	subject, body := b.Email(notification.Event{
		Type: notification.TypeTeamInvite,
		Data: []byte(`{"actor_name":"Ana","team_name":"Platform"}`),
	})

	if subject != "You're invited to join Platform" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Ana") || !strings.Contains(body, "Platform") {
		t.Fatalf("body missing variables: %q", body)
	}
}

func TestEmailFallsBackWithoutTemplate(t *testing.T) {
	b := NewBuilder()
	subject, body := b.Email(notification.Event{
		Type: notification.TypeChatMessage,
		Data: []byte(`{"actor_name":"Dev","preview":"lunch?"}`),
	})
	if subject != "Dev" || body != "lunch?" {
		t.Fatalf("expected content fallback, got %q / %q", subject, body)
	}
}

func TestInterpolateUnknownVariable(t *testing.T) {
	out := interpolate("hello {{name}}, {{missing}}!", map[string]string{"name": "you"})
	if out != "hello you, !" {
		t.Fatalf("unexpected interpolation %q", out)
	}
}

func TestInterpolateValueWithPlaceholderSyntax(t *testing.T) {
	// Values come from user-controlled fields (display names, titles) and
	// must be emitted verbatim, never expanded again.
	out := interpolate("hello {{actor}}", map[string]string{"actor": "{{actor}}"})
	if out != "hello {{actor}}" {
		t.Fatalf("unexpected interpolation %q", out)
	}

	out = interpolate("{{a}} and {{b}}", map[string]string{"a": "{{b}}", "b": "end"})
	if out != "{{b}} and end" {
		t.Fatalf("unexpected interpolation %q", out)
	}
}
