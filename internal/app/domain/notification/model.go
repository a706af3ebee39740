// Package notification defines the domain model for the fan-out engine:
// notification rows, the per-user preference matrix, push subscriptions and
// the persistent email queue.
package notification

import "time"

// Type identifies a user-facing event kind.
type Type string

const (
	TypeTaskAssigned     Type = "task_assigned"
	TypeTaskCompleted    Type = "task_completed"
	TypeTaskDueSoon      Type = "task_due_soon"
	TypeTeamInvite       Type = "team_invite"
	TypeTeamMemberJoined Type = "team_member_joined"
	TypeChatMessage      Type = "chat_message"
	TypeCallIncoming     Type = "call_incoming"
	TypeCallMissed       Type = "call_missed"
	TypeEventReminder    Type = "event_reminder"
	TypeNoteShared       Type = "note_shared"
)

// Types lists every known notification type.
func Types() []Type {
	return []Type{
		TypeTaskAssigned,
		TypeTaskCompleted,
		TypeTaskDueSoon,
		TypeTeamInvite,
		TypeTeamMemberJoined,
		TypeChatMessage,
		TypeCallIncoming,
		TypeCallMissed,
		TypeEventReminder,
		TypeNoteShared,
	}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// Channel is a delivery path for a notification.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Channels lists every delivery channel.
func Channels() []Channel {
	return []Channel{ChannelInApp, ChannelPush, ChannelEmail}
}

// ChannelSet is the resolved set of channels allowed for one delivery.
type ChannelSet map[Channel]bool

// AllChannels returns a set with every channel enabled. Used as the
// default when no preference record exists.
func AllChannels() ChannelSet {
	return ChannelSet{ChannelInApp: true, ChannelPush: true, ChannelEmail: true}
}

// Allows reports whether the set permits delivery on ch.
func (s ChannelSet) Allows(ch Channel) bool {
	return s[ch]
}

// Notification is a persisted in-app notification row.
type Notification struct {
	ID        string
	UserID    string
	Type      Type
	Title     string
	Body      string
	Link      string
	ActorID   string
	Metadata  map[string]any
	Read      bool
	CreatedAt time.Time
	ReadAt    *time.Time
}

// Preference is one user's per-type, per-channel matrix. A missing record
// means every channel is allowed.
type Preference struct {
	UserID    string
	InApp     map[Type]bool
	Push      map[Type]bool
	Email     map[Type]bool
	MuteAll   bool
	UpdatedAt time.Time
}

// Resolve computes the channel set for a type from the matrix. Types absent
// from a channel map default to allowed.
func (p Preference) Resolve(t Type) ChannelSet {
	if p.MuteAll {
		return ChannelSet{}
	}
	set := ChannelSet{}
	set[ChannelInApp] = allowed(p.InApp, t)
	set[ChannelPush] = allowed(p.Push, t)
	set[ChannelEmail] = allowed(p.Email, t)
	return set
}

func allowed(m map[Type]bool, t Type) bool {
	if m == nil {
		return true
	}
	v, ok := m[t]
	if !ok {
		return true
	}
	return v
}

// PushSubscription is one browser/device push endpoint for a user.
type PushSubscription struct {
	ID           string
	UserID       string
	Endpoint     string
	P256DH       string
	Auth         string
	UserAgent    string
	Active       bool
	FailureCount int
	CreatedAt    time.Time
	LastSeenAt   time.Time
}

// EmailStatus tracks an email queue item through its lifecycle.
type EmailStatus string

const (
	EmailPending   EmailStatus = "pending"
	EmailSent      EmailStatus = "sent"
	EmailFailed    EmailStatus = "failed"
	EmailCancelled EmailStatus = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s EmailStatus) Terminal() bool {
	return s == EmailSent || s == EmailFailed || s == EmailCancelled
}

// EmailQueueItem is a persisted outbound email with retry bookkeeping.
type EmailQueueItem struct {
	ID           string
	Type         Type
	Recipient    string
	Subject      string
	Body         string
	Status       EmailStatus
	Attempts     int
	MaxAttempts  int
	ScheduledFor time.Time
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Event is a domain occurrence that may fan out to one or more users.
type Event struct {
	Type       Type
	ActorID    string
	Recipients []string
	// Data carries type-specific context as raw JSON (task title, team
	// name, caller name and so on). The payload builder extracts what it
	// needs and tolerates missing fields.
	Data       []byte
	OccurredAt time.Time
}

// DeliveryResult records the outcome for a single destination.
type DeliveryResult struct {
	UserID      string
	Channel     Channel
	Destination string
	Success     bool
	StatusCode  int
	Err         string
}

// Receipt aggregates the outcome of one event's fan-out.
type Receipt struct {
	Type       Type
	Recipients int
	Delivered  int
	Suppressed int
	Failed     int
	Results    []DeliveryResult
}
