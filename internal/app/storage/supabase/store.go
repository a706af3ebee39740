// Package supabase implements the entity storage interfaces against the
// hosted platform's REST surface. Rows for tasks, teams, chat, calendar
// and notes live in platform-managed tables; this store only shuttles
// them over PostgREST.
package supabase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Integral-ind/integral-backend/internal/app/domain/calendar"
	"github.com/Integral-ind/integral-backend/internal/app/domain/chat"
	"github.com/Integral-ind/integral-backend/internal/app/domain/note"
	"github.com/Integral-ind/integral-backend/internal/app/domain/task"
	"github.com/Integral-ind/integral-backend/internal/app/domain/team"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
	platform "github.com/Integral-ind/integral-backend/internal/platform/supabase"
)

// Store implements the entity storage interfaces over PostgREST.
type Store struct {
	client *platform.Client
}

var _ storage.TaskStore = (*Store)(nil)
var _ storage.TeamStore = (*Store)(nil)
var _ storage.ChatStore = (*Store)(nil)
var _ storage.CalendarStore = (*Store)(nil)
var _ storage.NoteStore = (*Store)(nil)

// New creates a Store backed by the given platform client.
func New(client *platform.Client) *Store {
	return &Store{client: client}
}

func decodeOne[T any](resp *platform.Response) (T, error) {
	var zero T
	if err := resp.Error(); err != nil {
		return zero, err
	}
	var rows []T
	if err := resp.JSON(&rows); err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, storage.ErrNotFound
	}
	return rows[0], nil
}

func decodeMany[T any](resp *platform.Response) ([]T, error) {
	if err := resp.Error(); err != nil {
		return nil, err
	}
	var rows []T
	if err := resp.JSON(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// --- tasks ------------------------------------------------------------------

type taskRow struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	ProjectID   string     `json:"project_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskRow(t task.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		AssigneeID:  t.AssigneeID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r taskRow) toDomain() task.Task {
	return task.Task{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		AssigneeID:  r.AssigneeID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Status:      task.Status(r.Status),
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (s *Store) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	resp, err := s.client.From("tasks").ExecuteInsert(ctx, toTaskRow(t))
	if err != nil {
		return task.Task{}, err
	}
	row, err := decodeOne[taskRow](resp)
	if err != nil {
		return task.Task{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.UpdatedAt = time.Now().UTC()

	resp, err := s.client.From("tasks").Eq("id", t.ID).ExecuteUpdate(ctx, toTaskRow(t))
	if err != nil {
		return task.Task{}, err
	}
	row, err := decodeOne[taskRow](resp)
	if err != nil {
		return task.Task{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetTask(ctx context.Context, id string) (task.Task, error) {
	resp, err := s.client.From("tasks").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return task.Task{}, err
	}
	row, err := decodeOne[taskRow](resp)
	if err != nil {
		return task.Task{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListTasks(ctx context.Context, userID string) ([]task.Task, error) {
	resp, err := s.client.From("tasks").
		Eq("owner_id", userID).
		Order("created_at", false).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[taskRow](resp)
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	resp, err := s.client.From("tasks").Eq("id", id).ExecuteDelete(ctx)
	if err != nil {
		return err
	}
	if _, err := decodeOne[taskRow](resp); err != nil {
		return err
	}
	return nil
}

func (s *Store) ListTasksDueBetween(ctx context.Context, from, to time.Time) ([]task.Task, error) {
	resp, err := s.client.From("tasks").
		Gte("due_date", from.UTC().Format(time.RFC3339)).
		Lte("due_date", to.UTC().Format(time.RFC3339)).
		Neq("status", string(task.StatusDone)).
		Order("due_date", true).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[taskRow](resp)
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

// --- teams ------------------------------------------------------------------

type teamRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r teamRow) toDomain() team.Team {
	return team.Team{ID: r.ID, Name: r.Name, OwnerID: r.OwnerID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

type memberRow struct {
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type inviteRow struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	InviterID string    `json:"inviter_id"`
	InviteeID string    `json:"invitee_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r inviteRow) toDomain() team.Invite {
	return team.Invite{
		ID:        r.ID,
		TeamID:    r.TeamID,
		TeamName:  r.TeamName,
		InviterID: r.InviterID,
		InviteeID: r.InviteeID,
		Status:    team.InviteStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreateTeam(ctx context.Context, t team.Team) (team.Team, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	resp, err := s.client.From("teams").ExecuteInsert(ctx, teamRow{
		ID: t.ID, Name: t.Name, OwnerID: t.OwnerID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	})
	if err != nil {
		return team.Team{}, err
	}
	row, err := decodeOne[teamRow](resp)
	if err != nil {
		return team.Team{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (team.Team, error) {
	resp, err := s.client.From("teams").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return team.Team{}, err
	}
	row, err := decodeOne[teamRow](resp)
	if err != nil {
		return team.Team{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListTeams(ctx context.Context, userID string) ([]team.Team, error) {
	// Membership rows first, then the team rows they point at.
	resp, err := s.client.From("team_members").Eq("user_id", userID).Execute(ctx)
	if err != nil {
		return nil, err
	}
	members, err := decodeMany[memberRow](resp)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []team.Team{}, nil
	}

	ids := make([]any, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.TeamID)
	}
	resp, err = s.client.From("teams").In("id", ids).Order("created_at", true).Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[teamRow](resp)
	if err != nil {
		return nil, err
	}
	teams := make([]team.Team, 0, len(rows))
	for _, r := range rows {
		teams = append(teams, r.toDomain())
	}
	return teams, nil
}

func (s *Store) AddMember(ctx context.Context, m team.Member) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	resp, err := s.client.From("team_members").
		Upsert("team_id,user_id").
		ExecuteInsert(ctx, memberRow{TeamID: m.TeamID, UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt})
	if err != nil {
		return err
	}
	return resp.Error()
}

func (s *Store) ListMembers(ctx context.Context, teamID string) ([]team.Member, error) {
	resp, err := s.client.From("team_members").Eq("team_id", teamID).Order("joined_at", true).Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[memberRow](resp)
	if err != nil {
		return nil, err
	}
	members := make([]team.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, team.Member{TeamID: r.TeamID, UserID: r.UserID, Role: r.Role, JoinedAt: r.JoinedAt})
	}
	return members, nil
}

func (s *Store) CreateInvite(ctx context.Context, inv team.Invite) (team.Invite, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Status == "" {
		inv.Status = team.InvitePending
	}

	resp, err := s.client.From("team_invites").ExecuteInsert(ctx, inviteRow{
		ID: inv.ID, TeamID: inv.TeamID, TeamName: inv.TeamName,
		InviterID: inv.InviterID, InviteeID: inv.InviteeID,
		Status: string(inv.Status), CreatedAt: inv.CreatedAt, UpdatedAt: inv.UpdatedAt,
	})
	if err != nil {
		return team.Invite{}, err
	}
	row, err := decodeOne[inviteRow](resp)
	if err != nil {
		return team.Invite{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetInvite(ctx context.Context, id string) (team.Invite, error) {
	resp, err := s.client.From("team_invites").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return team.Invite{}, err
	}
	row, err := decodeOne[inviteRow](resp)
	if err != nil {
		return team.Invite{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateInvite(ctx context.Context, inv team.Invite) (team.Invite, error) {
	inv.UpdatedAt = time.Now().UTC()

	resp, err := s.client.From("team_invites").Eq("id", inv.ID).ExecuteUpdate(ctx, map[string]any{
		"status":     string(inv.Status),
		"updated_at": inv.UpdatedAt,
	})
	if err != nil {
		return team.Invite{}, err
	}
	row, err := decodeOne[inviteRow](resp)
	if err != nil {
		return team.Invite{}, err
	}
	return row.toDomain(), nil
}

// --- chat -------------------------------------------------------------------

type conversationRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	IsGroup      bool      `json:"is_group"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r conversationRow) toDomain() chat.Conversation {
	return chat.Conversation{
		ID: r.ID, Name: r.Name, IsGroup: r.IsGroup,
		Participants: r.Participants, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type messageRow struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Store) CreateConversation(ctx context.Context, c chat.Conversation) (chat.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	resp, err := s.client.From("conversations").ExecuteInsert(ctx, conversationRow{
		ID: c.ID, Name: c.Name, IsGroup: c.IsGroup,
		Participants: c.Participants, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	})
	if err != nil {
		return chat.Conversation{}, err
	}
	row, err := decodeOne[conversationRow](resp)
	if err != nil {
		return chat.Conversation{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (chat.Conversation, error) {
	resp, err := s.client.From("conversations").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return chat.Conversation{}, err
	}
	row, err := decodeOne[conversationRow](resp)
	if err != nil {
		return chat.Conversation{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	// participants is a text[] column; cs.{v} is PostgREST array-contains.
	resp, err := s.client.From("conversations").
		Filter("participants", "cs", "{"+userID+"}").
		Order("updated_at", false).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[conversationRow](resp)
	if err != nil {
		return nil, err
	}
	convs := make([]chat.Conversation, 0, len(rows))
	for _, r := range rows {
		convs = append(convs, r.toDomain())
	}
	return convs, nil
}

func (s *Store) CreateMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	resp, err := s.client.From("messages").ExecuteInsert(ctx, messageRow{
		ID: m.ID, ConversationID: m.ConversationID, SenderID: m.SenderID,
		Content: m.Content, CreatedAt: m.CreatedAt,
	})
	if err != nil {
		return chat.Message{}, err
	}
	row, err := decodeOne[messageRow](resp)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{
		ID: row.ID, ConversationID: row.ConversationID, SenderID: row.SenderID,
		Content: row.Content, CreatedAt: row.CreatedAt,
	}, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	q := s.client.From("messages").
		Eq("conversation_id", conversationID).
		Order("created_at", false)
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	resp, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[messageRow](resp)
	if err != nil {
		return nil, err
	}
	msgs := make([]chat.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, chat.Message{
			ID: r.ID, ConversationID: r.ConversationID, SenderID: r.SenderID,
			Content: r.Content, CreatedAt: r.CreatedAt,
		})
	}
	return msgs, nil
}

// --- calendar ---------------------------------------------------------------

type eventRow struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Attendees    []string  `json:"attendees"`
	ReminderMins int       `json:"reminder_minutes"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toEventRow(e calendar.Event) eventRow {
	return eventRow{
		ID: e.ID, OwnerID: e.OwnerID, Title: e.Title,
		Description: e.Description, Location: e.Location,
		StartsAt: e.StartsAt, EndsAt: e.EndsAt, Attendees: e.Attendees,
		ReminderMins: int(e.ReminderLead / time.Minute),
		ReminderSent: e.ReminderSent,
		CreatedAt:    e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

func (r eventRow) toDomain() calendar.Event {
	return calendar.Event{
		ID: r.ID, OwnerID: r.OwnerID, Title: r.Title,
		Description: r.Description, Location: r.Location,
		StartsAt: r.StartsAt, EndsAt: r.EndsAt, Attendees: r.Attendees,
		ReminderLead: time.Duration(r.ReminderMins) * time.Minute,
		ReminderSent: r.ReminderSent,
		CreatedAt:    r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreateEvent(ctx context.Context, e calendar.Event) (calendar.Event, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	resp, err := s.client.From("calendar_events").ExecuteInsert(ctx, toEventRow(e))
	if err != nil {
		return calendar.Event{}, err
	}
	row, err := decodeOne[eventRow](resp)
	if err != nil {
		return calendar.Event{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateEvent(ctx context.Context, e calendar.Event) (calendar.Event, error) {
	e.UpdatedAt = time.Now().UTC()

	resp, err := s.client.From("calendar_events").Eq("id", e.ID).ExecuteUpdate(ctx, toEventRow(e))
	if err != nil {
		return calendar.Event{}, err
	}
	row, err := decodeOne[eventRow](resp)
	if err != nil {
		return calendar.Event{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (calendar.Event, error) {
	resp, err := s.client.From("calendar_events").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return calendar.Event{}, err
	}
	row, err := decodeOne[eventRow](resp)
	if err != nil {
		return calendar.Event{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]calendar.Event, error) {
	q := s.client.From("calendar_events").Eq("owner_id", userID)
	if !from.IsZero() {
		q = q.Gte("starts_at", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q = q.Lte("starts_at", to.UTC().Format(time.RFC3339))
	}
	resp, err := q.Order("starts_at", true).Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[eventRow](resp)
	if err != nil {
		return nil, err
	}
	events := make([]calendar.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toDomain())
	}
	return events, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	resp, err := s.client.From("calendar_events").Eq("id", id).ExecuteDelete(ctx)
	if err != nil {
		return err
	}
	if _, err := decodeOne[eventRow](resp); err != nil {
		return err
	}
	return nil
}

func (s *Store) ListDueReminders(ctx context.Context, now time.Time) ([]calendar.Event, error) {
	resp, err := s.client.From("calendar_events").
		Eq("reminder_sent", "false").
		Gte("starts_at", now.UTC().Format(time.RFC3339)).
		Order("starts_at", true).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[eventRow](resp)
	if err != nil {
		return nil, err
	}
	events := make([]calendar.Event, 0, len(rows))
	for _, r := range rows {
		e := r.toDomain()
		if e.ReminderDue(now) {
			events = append(events, e)
		}
	}
	return events, nil
}

// --- notes ------------------------------------------------------------------

type noteRow struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	SharedWith []string  `json:"shared_with"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toNoteRow(n note.Note) noteRow {
	return noteRow{
		ID: n.ID, OwnerID: n.OwnerID, Title: n.Title, Content: n.Content,
		SharedWith: n.SharedWith, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt,
	}
}

func (r noteRow) toDomain() note.Note {
	return note.Note{
		ID: r.ID, OwnerID: r.OwnerID, Title: r.Title, Content: r.Content,
		SharedWith: r.SharedWith, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) CreateNote(ctx context.Context, n note.Note) (note.Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	resp, err := s.client.From("notes").ExecuteInsert(ctx, toNoteRow(n))
	if err != nil {
		return note.Note{}, err
	}
	row, err := decodeOne[noteRow](resp)
	if err != nil {
		return note.Note{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateNote(ctx context.Context, n note.Note) (note.Note, error) {
	n.UpdatedAt = time.Now().UTC()

	resp, err := s.client.From("notes").Eq("id", n.ID).ExecuteUpdate(ctx, toNoteRow(n))
	if err != nil {
		return note.Note{}, err
	}
	row, err := decodeOne[noteRow](resp)
	if err != nil {
		return note.Note{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetNote(ctx context.Context, id string) (note.Note, error) {
	resp, err := s.client.From("notes").Eq("id", id).Limit(1).Execute(ctx)
	if err != nil {
		return note.Note{}, err
	}
	row, err := decodeOne[noteRow](resp)
	if err != nil {
		return note.Note{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListNotes(ctx context.Context, userID string) ([]note.Note, error) {
	resp, err := s.client.From("notes").
		Eq("owner_id", userID).
		Order("updated_at", false).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := decodeMany[noteRow](resp)
	if err != nil {
		return nil, err
	}
	notes := make([]note.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toDomain())
	}
	return notes, nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	resp, err := s.client.From("notes").Eq("id", id).ExecuteDelete(ctx)
	if err != nil {
		return err
	}
	if _, err := decodeOne[noteRow](resp); err != nil {
		return err
	}
	return nil
}
