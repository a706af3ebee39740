// Package teams implements team membership and the invite workflow.
package teams

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	svcerr "github.com/Integral-ind/integral-backend/internal/errors"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/domain/team"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	"github.com/Integral-ind/integral-backend/pkg/logger"
)

// Notifier receives domain events for fan-out.
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event) (notification.Receipt, error)
}

// Service manages teams, members and invites.
type Service struct {
	store    storage.TeamStore
	notifier Notifier
	log      *logger.Logger
}

// New creates a team Service.
func New(store storage.TeamStore, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("teams")
	}
	return &Service{store: store, notifier: notifier, log: log}
}

// Create stores a team and makes the owner its first admin member.
func (s *Service) Create(ctx context.Context, t team.Team) (team.Team, error) {
	if strings.TrimSpace(t.Name) == "" {
		return team.Team{}, svcerr.BadRequest("name is required")
	}
	if t.OwnerID == "" {
		return team.Team{}, svcerr.BadRequest("owner is required")
	}

	created, err := s.store.CreateTeam(ctx, t)
	if err != nil {
		return team.Team{}, err
	}
	err = s.store.AddMember(ctx, team.Member{
		TeamID: created.ID,
		UserID: created.OwnerID,
		Role:   "admin",
	})
	if err != nil {
		return team.Team{}, err
	}
	return created, nil
}

// Get returns one team.
func (s *Service) Get(ctx context.Context, id string) (team.Team, error) {
	return s.store.GetTeam(ctx, id)
}

// List returns the teams the user belongs to.
func (s *Service) List(ctx context.Context, userID string) ([]team.Team, error) {
	return s.store.ListTeams(ctx, userID)
}

// Members returns a team's member list.
func (s *Service) Members(ctx context.Context, teamID string) ([]team.Member, error) {
	return s.store.ListMembers(ctx, teamID)
}

// Invite creates a pending invite and notifies the invitee. Only members
// can invite, and existing members cannot be invited again.
func (s *Service) Invite(ctx context.Context, actorID, teamID, inviteeID string) (team.Invite, error) {
	if inviteeID == "" {
		return team.Invite{}, svcerr.BadRequest("invitee is required")
	}
	if inviteeID == actorID {
		return team.Invite{}, svcerr.BadRequest("cannot invite yourself")
	}

	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return team.Invite{}, err
	}

	members, err := s.store.ListMembers(ctx, teamID)
	if err != nil {
		return team.Invite{}, err
	}
	actorIsMember := false
	for _, m := range members {
		if m.UserID == inviteeID {
			return team.Invite{}, svcerr.Conflict("user is already a member")
		}
		if m.UserID == actorID {
			actorIsMember = true
		}
	}
	if !actorIsMember {
		return team.Invite{}, svcerr.Forbidden("only members can invite")
	}

	inv, err := s.store.CreateInvite(ctx, team.Invite{
		TeamID:    teamID,
		TeamName:  t.Name,
		InviterID: actorID,
		InviteeID: inviteeID,
	})
	if err != nil {
		return team.Invite{}, err
	}

	s.emit(ctx, notification.TypeTeamInvite, actorID, []string{inviteeID}, map[string]any{
		"invite_id": inv.ID,
		"team_id":   teamID,
		"team_name": t.Name,
	})
	return inv, nil
}

// Respond accepts or declines a pending invite. Only the invitee may
// respond, and only once. Accepting joins the team and announces the new
// member to everyone already in it.
func (s *Service) Respond(ctx context.Context, userID, inviteID string, accept bool) (team.Invite, error) {
	inv, err := s.store.GetInvite(ctx, inviteID)
	if err != nil {
		return team.Invite{}, err
	}
	if inv.InviteeID != userID {
		return team.Invite{}, svcerr.Forbidden("invite belongs to another user")
	}
	if inv.Status != team.InvitePending {
		return team.Invite{}, svcerr.Conflict("invite already " + string(inv.Status))
	}

	if accept {
		inv.Status = team.InviteAccepted
	} else {
		inv.Status = team.InviteDeclined
	}
	inv, err = s.store.UpdateInvite(ctx, inv)
	if err != nil {
		return team.Invite{}, err
	}
	if !accept {
		return inv, nil
	}

	err = s.store.AddMember(ctx, team.Member{
		TeamID: inv.TeamID,
		UserID: userID,
		Role:   "member",
	})
	if err != nil {
		return team.Invite{}, err
	}

	members, err := s.store.ListMembers(ctx, inv.TeamID)
	if err != nil {
		s.log.WithError(err).Warn("list members for join announcement")
		return inv, nil
	}
	recipients := make([]string, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, m.UserID)
	}
	s.emit(ctx, notification.TypeTeamMemberJoined, userID, recipients, map[string]any{
		"team_id":   inv.TeamID,
		"team_name": inv.TeamName,
	})
	return inv, nil
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
