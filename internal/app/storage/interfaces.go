// Package storage defines the persistence interfaces shared by the
// in-memory, hosted-platform and Postgres implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Integral-ind/integral-backend/internal/app/domain/calendar"
	"github.com/Integral-ind/integral-backend/internal/app/domain/chat"
	"github.com/Integral-ind/integral-backend/internal/app/domain/note"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/domain/task"
	"github.com/Integral-ind/integral-backend/internal/app/domain/team"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// NotificationStore persists in-app notification rows.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]notification.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// PreferenceStore persists the per-user notification preference matrix.
type PreferenceStore interface {
	// GetPreference returns ErrNotFound when the user has no record.
	GetPreference(ctx context.Context, userID string) (notification.Preference, error)
	UpsertPreference(ctx context.Context, pref notification.Preference) (notification.Preference, error)
}

// PushSubscriptionStore persists push endpoints.
type PushSubscriptionStore interface {
	// SaveSubscription upserts by endpoint and reactivates the record.
	SaveSubscription(ctx context.Context, sub notification.PushSubscription) (notification.PushSubscription, error)
	ListActiveSubscriptions(ctx context.Context, userID string) ([]notification.PushSubscription, error)
	UpdateSubscription(ctx context.Context, sub notification.PushSubscription) (notification.PushSubscription, error)
	DeleteSubscription(ctx context.Context, userID, id string) error
}

// EmailQueueStore persists the outbound email queue.
type EmailQueueStore interface {
	EnqueueEmail(ctx context.Context, item notification.EmailQueueItem) (notification.EmailQueueItem, error)
	GetEmail(ctx context.Context, id string) (notification.EmailQueueItem, error)
	// ListDueEmails returns pending items whose scheduled_for is at or
	// before now, oldest first.
	ListDueEmails(ctx context.Context, now time.Time, limit int) ([]notification.EmailQueueItem, error)
	UpdateEmail(ctx context.Context, item notification.EmailQueueItem) (notification.EmailQueueItem, error)
	CountPendingEmails(ctx context.Context) (int, error)
}

// TaskStore persists task rows.
type TaskStore interface {
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	UpdateTask(ctx context.Context, t task.Task) (task.Task, error)
	GetTask(ctx context.Context, id string) (task.Task, error)
	ListTasks(ctx context.Context, userID string) ([]task.Task, error)
	DeleteTask(ctx context.Context, id string) error
	// ListTasksDueBetween supports the due-soon reminder scan.
	ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]task.Task, error)
}

// TeamStore persists teams, members and invites.
type TeamStore interface {
	CreateTeam(ctx context.Context, t team.Team) (team.Team, error)
	GetTeam(ctx context.Context, id string) (team.Team, error)
	ListTeams(ctx context.Context, userID string) ([]team.Team, error)
	AddMember(ctx context.Context, m team.Member) error
	ListMembers(ctx context.Context, teamID string) ([]team.Member, error)
	CreateInvite(ctx context.Context, inv team.Invite) (team.Invite, error)
	GetInvite(ctx context.Context, id string) (team.Invite, error)
	UpdateInvite(ctx context.Context, inv team.Invite) (team.Invite, error)
}

// ChatStore persists conversations and messages.
type ChatStore interface {
	CreateConversation(ctx context.Context, c chat.Conversation) (chat.Conversation, error)
	GetConversation(ctx context.Context, id string) (chat.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error)
	CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error)
}

// CalendarStore persists calendar events.
type CalendarStore interface {
	CreateEvent(ctx context.Context, e calendar.Event) (calendar.Event, error)
	UpdateEvent(ctx context.Context, e calendar.Event) (calendar.Event, error)
	GetEvent(ctx context.Context, id string) (calendar.Event, error)
	ListEvents(ctx context.Context, userID string, from, to time.Time) ([]calendar.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	// ListDueReminders returns events whose reminder window includes now
	// and whose reminder has not fired yet.
	ListDueReminders(ctx context.Context, now time.Time) ([]calendar.Event, error)
}

// NoteStore persists notes.
type NoteStore interface {
	CreateNote(ctx context.Context, n note.Note) (note.Note, error)
	UpdateNote(ctx context.Context, n note.Note) (note.Note, error)
	GetNote(ctx context.Context, id string) (note.Note, error)
	ListNotes(ctx context.Context, userID string) ([]note.Note, error)
	DeleteNote(ctx context.Context, id string) error
}
