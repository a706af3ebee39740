package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	caldom "github.com/Integral-ind/integral-backend/internal/app/domain/calendar"
	chatdom "github.com/Integral-ind/integral-backend/internal/app/domain/chat"
	notedom "github.com/Integral-ind/integral-backend/internal/app/domain/note"
	"github.com/Integral-ind/integral-backend/internal/app/domain/task"
	"github.com/Integral-ind/integral-backend/internal/app/domain/team"
	"github.com/Integral-ind/integral-backend/internal/httputil"
)

// --- tasks ------------------------------------------------------------------

type taskPayload struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssigneeID  string     `json:"assignee_id"`
	ProjectID   string     `json:"project_id"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var payload taskPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	created, err := h.svc.Tasks.Create(r.Context(), task.Task{
		OwnerID:     userID(r),
		AssigneeID:  payload.AssigneeID,
		ProjectID:   payload.ProjectID,
		Title:       payload.Title,
		Description: payload.Description,
		Status:      task.Status(payload.Status),
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Tasks.List(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tasks": rows})
}

func (h *handler) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	existing, err := h.svc.Tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	var payload taskPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if payload.Title != "" {
		existing.Title = payload.Title
	}
	if payload.Description != "" {
		existing.Description = payload.Description
	}
	if payload.AssigneeID != "" {
		existing.AssigneeID = payload.AssigneeID
	}
	if payload.Status != "" {
		existing.Status = task.Status(payload.Status)
	}
	if payload.Priority != "" {
		existing.Priority = payload.Priority
	}
	if payload.DueDate != nil {
		existing.DueDate = payload.DueDate
	}

	updated, err := h.svc.Tasks.Update(r.Context(), userID(r), existing)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Tasks.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- teams ------------------------------------------------------------------

func (h *handler) createTeam(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	created, err := h.svc.Teams.Create(r.Context(), team.Team{Name: payload.Name, OwnerID: userID(r)})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) listTeams(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Teams.List(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"teams": rows})
}

func (h *handler) getTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Teams.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.Teams.Members(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *handler) createInvite(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		InviteeID string `json:"invitee_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	inv, err := h.svc.Teams.Invite(r.Context(), userID(r), mux.Vars(r)["id"], payload.InviteeID)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inv)
}

func (h *handler) acceptInvite(w http.ResponseWriter, r *http.Request) {
	h.respondInvite(w, r, true)
}

func (h *handler) declineInvite(w http.ResponseWriter, r *http.Request) {
	h.respondInvite(w, r, false)
}

func (h *handler) respondInvite(w http.ResponseWriter, r *http.Request, accept bool) {
	inv, err := h.svc.Teams.Respond(r.Context(), userID(r), mux.Vars(r)["id"], accept)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inv)
}

// --- chat -------------------------------------------------------------------

func (h *handler) createConversation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name         string   `json:"name"`
		Participants []string `json:"participants"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	conv, err := h.svc.Chat.CreateConversation(r.Context(), userID(r), chatdom.Conversation{
		Name:         payload.Name,
		Participants: payload.Participants,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, conv)
}

func (h *handler) listConversations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Chat.List(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"conversations": rows})
}

func (h *handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	msg, err := h.svc.Chat.SendMessage(r.Context(), userID(r), mux.Vars(r)["id"], payload.Content)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.Chat.Messages(r.Context(), userID(r), mux.Vars(r)["id"],
		queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *handler) ringCall(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CallID string `json:"call_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	if err := h.svc.Chat.RingCall(r.Context(), userID(r), mux.Vars(r)["id"], payload.CallID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) missCall(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CallID   string `json:"call_id"`
		CalleeID string `json:"callee_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	if err := h.svc.Chat.MissCall(r.Context(), userID(r), mux.Vars(r)["id"], payload.CallID, payload.CalleeID); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// --- calendar ---------------------------------------------------------------

type eventPayload struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Attendees    []string  `json:"attendees"`
	ReminderMins int       `json:"reminder_minutes"`
}

func (p eventPayload) toDomain(owner string) caldom.Event {
	return caldom.Event{
		OwnerID:      owner,
		Title:        p.Title,
		Description:  p.Description,
		Location:     p.Location,
		StartsAt:     p.StartsAt,
		EndsAt:       p.EndsAt,
		Attendees:    p.Attendees,
		ReminderLead: time.Duration(p.ReminderMins) * time.Minute,
	}
}

func (h *handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	created, err := h.svc.Calendar.Create(r.Context(), payload.toDomain(userID(r)))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		from, _ = time.Parse(time.RFC3339, v)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, _ = time.Parse(time.RFC3339, v)
	}

	rows, err := h.svc.Calendar.List(r.Context(), userID(r), from, to)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": rows})
}

func (h *handler) getEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Calendar.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	e := payload.toDomain(userID(r))
	e.ID = mux.Vars(r)["id"]
	updated, err := h.svc.Calendar.Update(r.Context(), e)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Calendar.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- notes ------------------------------------------------------------------

func (h *handler) createNote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	created, err := h.svc.Notes.Create(r.Context(), notedom.Note{
		OwnerID: userID(r),
		Title:   payload.Title,
		Content: payload.Content,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *handler) listNotes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Notes.List(r.Context(), userID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notes": rows})
}

func (h *handler) getNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notes.Get(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}

func (h *handler) updateNote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	updated, err := h.svc.Notes.Update(r.Context(), userID(r), notedom.Note{
		ID:      mux.Vars(r)["id"],
		Title:   payload.Title,
		Content: payload.Content,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Notes.Delete(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) shareNote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteErrorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	n, err := h.svc.Notes.Share(r.Context(), userID(r), mux.Vars(r)["id"], payload.UserIDs)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}
