package teams

import (
	"context"
	"testing"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/domain/team"
	"github.com/Integral-ind/integral-backend/internal/app/storage/memory"
)

type recordingNotifier struct {
	events []notification.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notification.Event) (notification.Receipt, error) {
	r.events = append(r.events, ev)
	return notification.Receipt{}, nil
}

func newTeam(t *testing.T, svc *Service, owner string) team.Team {
	t.Helper()
	created, err := svc.Create(context.Background(), team.Team{Name: "Platform", OwnerID: owner})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	return created
}

func TestCreateAddsOwnerAsAdmin(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	created := newTeam(t, svc, "owner-1")

	members, err := svc.Members(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0].UserID != "owner-1" || members[0].Role != "admin" {
		t.Fatalf("unexpected members %v", members)
	}
}

func TestInviteNotifiesInvitee(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	created := newTeam(t, svc, "owner-1")

	inv, err := svc.Invite(context.Background(), "owner-1", created.ID, "user-2")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if inv.Status != team.InvitePending {
		t.Fatalf("expected pending invite, got %s", inv.Status)
	}

	if len(n.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(n.events))
	}
	ev := n.events[0]
	if ev.Type != notification.TypeTeamInvite || ev.Recipients[0] != "user-2" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestInviteRequiresMembership(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	created := newTeam(t, svc, "owner-1")

	if _, err := svc.Invite(context.Background(), "stranger", created.ID, "user-2"); err == nil {
		t.Fatal("non-members must not be able to invite")
	}
}

func TestInviteExistingMemberConflicts(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	created := newTeam(t, svc, "owner-1")

	if _, err := svc.Invite(context.Background(), "owner-1", created.ID, "owner-1"); err == nil {
		t.Fatal("expected error inviting yourself")
	}
}

func TestAcceptInviteJoinsAndAnnounces(t *testing.T) {
	n := &recordingNotifier{}
	svc := New(memory.New(), n, nil)
	created := newTeam(t, svc, "owner-1")
	ctx := context.Background()

	inv, err := svc.Invite(ctx, "owner-1", created.ID, "user-2")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	n.events = nil

	inv, err = svc.Respond(ctx, "user-2", inv.ID, true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if inv.Status != team.InviteAccepted {
		t.Fatalf("expected accepted, got %s", inv.Status)
	}

	members, _ := svc.Members(ctx, created.ID)
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	if len(n.events) != 1 || n.events[0].Type != notification.TypeTeamMemberJoined {
		t.Fatalf("expected a member-joined event, got %v", n.events)
	}
}

func TestRespondTwiceConflicts(t *testing.T) {
	svc := New(memory.New(), &recordingNotifier{}, nil)
	created := newTeam(t, svc, "owner-1")
	ctx := context.Background()

	inv, err := svc.Invite(ctx, "owner-1", created.ID, "user-2")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.Respond(ctx, "user-2", inv.ID, false); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := svc.Respond(ctx, "user-2", inv.ID, true); err == nil {
		t.Fatal("a settled invite must not be answerable again")
	}
}

func TestRespondWrongUserForbidden(t *testing.T) {
	svc := New(memory.New(), &recordingNotifier{}, nil)
	created := newTeam(t, svc, "owner-1")
	ctx := context.Background()

	inv, err := svc.Invite(ctx, "owner-1", created.ID, "user-2")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.Respond(ctx, "user-3", inv.ID, true); err == nil {
		t.Fatal("only the invitee may respond")
	}
}
