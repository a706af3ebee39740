// Package team defines team and membership row shapes.
package team

import "time"

// Team represents a team row.
type Team struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member links a user to a team with a role.
type Member struct {
	TeamID   string
	UserID   string
	Role     string
	JoinedAt time.Time
}

// InviteStatus tracks a pending team invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

// Invite represents an outstanding invitation to join a team.
type Invite struct {
	ID        string
	TeamID    string
	TeamName  string
	InviterID string
	InviteeID string
	Status    InviteStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
