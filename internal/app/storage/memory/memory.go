package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Integral-ind/integral-backend/internal/app/domain/calendar"
	"github.com/Integral-ind/integral-backend/internal/app/domain/chat"
	"github.com/Integral-ind/integral-backend/internal/app/domain/note"
	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/domain/task"
	"github.com/Integral-ind/integral-backend/internal/app/domain/team"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	notifications  map[string]notification.Notification
	preferences    map[string]notification.Preference
	subscriptions  map[string]notification.PushSubscription
	emails         map[string]notification.EmailQueueItem
	tasks          map[string]task.Task
	teams          map[string]team.Team
	members        map[string][]team.Member
	invites        map[string]team.Invite
	conversations  map[string]chat.Conversation
	messages       map[string][]chat.Message
	calendarEvents map[string]calendar.Event
	notes          map[string]note.Note
}

var _ storage.NotificationStore = (*Store)(nil)
var _ storage.PreferenceStore = (*Store)(nil)
var _ storage.PushSubscriptionStore = (*Store)(nil)
var _ storage.EmailQueueStore = (*Store)(nil)
var _ storage.TaskStore = (*Store)(nil)
var _ storage.TeamStore = (*Store)(nil)
var _ storage.ChatStore = (*Store)(nil)
var _ storage.CalendarStore = (*Store)(nil)
var _ storage.NoteStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:         1,
		notifications:  make(map[string]notification.Notification),
		preferences:    make(map[string]notification.Preference),
		subscriptions:  make(map[string]notification.PushSubscription),
		emails:         make(map[string]notification.EmailQueueItem),
		tasks:          make(map[string]task.Task),
		teams:          make(map[string]team.Team),
		members:        make(map[string][]team.Member),
		invites:        make(map[string]team.Invite),
		conversations:  make(map[string]chat.Conversation),
		messages:       make(map[string][]chat.Message),
		calendarEvents: make(map[string]calendar.Event),
		notes:          make(map[string]note.Note),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// NotificationStore implementation -------------------------------------------

func (s *Store) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.nextIDLocked()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.notifications[n.ID] = n
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool, limit, offset int) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []notification.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) MarkRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	if !n.Read {
		now := time.Now().UTC()
		n.Read = true
		n.ReadAt = &now
		s.notifications[id] = n
	}
	return nil
}

func (s *Store) MarkAllRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for id, n := range s.notifications {
		if n.UserID != userID || n.Read {
			continue
		}
		n.Read = true
		n.ReadAt = &now
		s.notifications[id] = n
		count++
	}
	return count, nil
}

func (s *Store) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

// PreferenceStore implementation ---------------------------------------------

func (s *Store) GetPreference(_ context.Context, userID string) (notification.Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref, ok := s.preferences[userID]
	if !ok {
		return notification.Preference{}, storage.ErrNotFound
	}
	return clonePreference(pref), nil
}

func (s *Store) UpsertPreference(_ context.Context, pref notification.Preference) (notification.Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pref.UpdatedAt = time.Now().UTC()
	s.preferences[pref.UserID] = clonePreference(pref)
	return pref, nil
}

// PushSubscriptionStore implementation ---------------------------------------

func (s *Store) SaveSubscription(_ context.Context, sub notification.PushSubscription) (notification.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range s.subscriptions {
		if existing.UserID == sub.UserID && existing.Endpoint == sub.Endpoint {
			sub.ID = id
			sub.CreatedAt = existing.CreatedAt
			sub.Active = true
			sub.FailureCount = 0
			sub.LastSeenAt = now
			s.subscriptions[id] = sub
			return sub, nil
		}
	}

	if sub.ID == "" {
		sub.ID = s.nextIDLocked()
	}
	sub.Active = true
	sub.CreatedAt = now
	sub.LastSeenAt = now
	s.subscriptions[sub.ID] = sub
	return sub, nil
}

func (s *Store) ListActiveSubscriptions(_ context.Context, userID string) ([]notification.PushSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []notification.PushSubscription
	for _, sub := range s.subscriptions {
		if sub.UserID == userID && sub.Active {
			result = append(result, sub)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub notification.PushSubscription) (notification.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subscriptions[sub.ID]
	if !ok {
		return notification.PushSubscription{}, storage.ErrNotFound
	}
	sub.CreatedAt = existing.CreatedAt
	s.subscriptions[sub.ID] = sub
	return sub, nil
}

func (s *Store) DeleteSubscription(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[id]
	if !ok || sub.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.subscriptions, id)
	return nil
}

// EmailQueueStore implementation ---------------------------------------------

func (s *Store) EnqueueEmail(_ context.Context, item notification.EmailQueueItem) (notification.EmailQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	if item.Status == "" {
		item.Status = notification.EmailPending
	}
	if item.ScheduledFor.IsZero() {
		item.ScheduledFor = now
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	s.emails[item.ID] = item
	return item, nil
}

func (s *Store) GetEmail(_ context.Context, id string) (notification.EmailQueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.emails[id]
	if !ok {
		return notification.EmailQueueItem{}, storage.ErrNotFound
	}
	return item, nil
}

func (s *Store) ListDueEmails(_ context.Context, now time.Time, limit int) ([]notification.EmailQueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []notification.EmailQueueItem
	for _, item := range s.emails {
		if item.Status == notification.EmailPending && !item.ScheduledFor.After(now) {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledFor.Before(result[j].ScheduledFor)
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) UpdateEmail(_ context.Context, item notification.EmailQueueItem) (notification.EmailQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.emails[item.ID]
	if !ok {
		return notification.EmailQueueItem{}, storage.ErrNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	s.emails[item.ID] = item
	return item, nil
}

func (s *Store) CountPendingEmails(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.emails {
		if item.Status == notification.EmailPending {
			count++
		}
	}
	return count, nil
}

// TaskStore implementation ---------------------------------------------------

func (s *Store) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[t.ID]
	if !ok {
		return task.Task{}, storage.ErrNotFound
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	s.tasks[t.ID] = t
	return t, nil
}

func (s *Store) GetTask(_ context.Context, id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTasks(_ context.Context, userID string) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []task.Task
	for _, t := range s.tasks {
		if t.OwnerID == userID || t.AssigneeID == userID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) ListTasksDueBetween(_ context.Context, from, to time.Time) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []task.Task
	for _, t := range s.tasks {
		if t.DueDate == nil || t.Status == task.StatusDone {
			continue
		}
		if !t.DueDate.Before(from) && !t.DueDate.After(to) {
			result = append(result, t)
		}
	}
	return result, nil
}

// TeamStore implementation ---------------------------------------------------

func (s *Store) CreateTeam(_ context.Context, t team.Team) (team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.teams[t.ID] = t
	return t, nil
}

func (s *Store) GetTeam(_ context.Context, id string) (team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return team.Team{}, storage.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTeams(_ context.Context, userID string) ([]team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []team.Team
	for id, t := range s.teams {
		if t.OwnerID == userID {
			result = append(result, t)
			continue
		}
		for _, m := range s.members[id] {
			if m.UserID == userID {
				result = append(result, t)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) AddMember(_ context.Context, m team.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[m.TeamID]; !ok {
		return storage.ErrNotFound
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	s.members[m.TeamID] = append(s.members[m.TeamID], m)
	return nil
}

func (s *Store) ListMembers(_ context.Context, teamID string) ([]team.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]team.Member, len(s.members[teamID]))
	copy(result, s.members[teamID])
	return result, nil
}

func (s *Store) CreateInvite(_ context.Context, inv team.Invite) (team.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.ID == "" {
		inv.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	if inv.Status == "" {
		inv.Status = team.InvitePending
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	s.invites[inv.ID] = inv
	return inv, nil
}

func (s *Store) GetInvite(_ context.Context, id string) (team.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invites[id]
	if !ok {
		return team.Invite{}, storage.ErrNotFound
	}
	return inv, nil
}

func (s *Store) UpdateInvite(_ context.Context, inv team.Invite) (team.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invites[inv.ID]
	if !ok {
		return team.Invite{}, storage.ErrNotFound
	}
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = time.Now().UTC()
	s.invites[inv.ID] = inv
	return inv, nil
}

// ChatStore implementation ---------------------------------------------------

func (s *Store) CreateConversation(_ context.Context, c chat.Conversation) (chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.conversations[c.ID] = c
	return c, nil
}

func (s *Store) GetConversation(_ context.Context, id string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return chat.Conversation{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListConversations(_ context.Context, userID string) ([]chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []chat.Conversation
	for _, c := range s.conversations {
		for _, p := range c.Participants {
			if p == userID {
				result = append(result, c)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (s *Store) CreateMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[m.ConversationID]; !ok {
		return chat.Message{}, storage.ErrNotFound
	}
	if m.ID == "" {
		m.ID = s.nextIDLocked()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)

	conv := s.conversations[m.ConversationID]
	conv.UpdatedAt = m.CreatedAt
	s.conversations[m.ConversationID] = conv
	return m, nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	if offset > len(msgs) {
		offset = len(msgs)
	}
	result := make([]chat.Message, len(msgs)-offset)
	copy(result, msgs[offset:])
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// CalendarStore implementation -----------------------------------------------

func (s *Store) CreateEvent(_ context.Context, e calendar.Event) (calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.calendarEvents[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEvent(_ context.Context, e calendar.Event) (calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.calendarEvents[e.ID]
	if !ok {
		return calendar.Event{}, storage.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.calendarEvents[e.ID] = e
	return e, nil
}

func (s *Store) GetEvent(_ context.Context, id string) (calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.calendarEvents[id]
	if !ok {
		return calendar.Event{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListEvents(_ context.Context, userID string, from, to time.Time) ([]calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []calendar.Event
	for _, e := range s.calendarEvents {
		if e.OwnerID != userID && !contains(e.Attendees, userID) {
			continue
		}
		if !from.IsZero() && e.EndsAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.StartsAt.After(to) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calendarEvents[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.calendarEvents, id)
	return nil
}

func (s *Store) ListDueReminders(_ context.Context, now time.Time) ([]calendar.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []calendar.Event
	for _, e := range s.calendarEvents {
		if e.ReminderDue(now) {
			result = append(result, e)
		}
	}
	return result, nil
}

// NoteStore implementation ---------------------------------------------------

func (s *Store) CreateNote(_ context.Context, n note.Note) (note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = s.nextIDLocked()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	s.notes[n.ID] = n
	return n, nil
}

func (s *Store) UpdateNote(_ context.Context, n note.Note) (note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[n.ID]
	if !ok {
		return note.Note{}, storage.ErrNotFound
	}
	n.CreatedAt = existing.CreatedAt
	n.UpdatedAt = time.Now().UTC()
	s.notes[n.ID] = n
	return n, nil
}

func (s *Store) GetNote(_ context.Context, id string) (note.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return note.Note{}, storage.ErrNotFound
	}
	return n, nil
}

func (s *Store) ListNotes(_ context.Context, userID string) ([]note.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []note.Note
	for _, n := range s.notes {
		if n.OwnerID == userID || contains(n.SharedWith, userID) {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (s *Store) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}

// helpers ---------------------------------------------------------------------

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func clonePreference(p notification.Preference) notification.Preference {
	cp := p
	cp.InApp = cloneTypeMap(p.InApp)
	cp.Push = cloneTypeMap(p.Push)
	cp.Email = cloneTypeMap(p.Email)
	return cp
}

func cloneTypeMap(m map[notification.Type]bool) map[notification.Type]bool {
	if m == nil {
		return nil
	}
	out := make(map[notification.Type]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
