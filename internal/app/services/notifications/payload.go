package notifications

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
)

// PushPayload is the JSON document posted to a push endpoint. Tag collapses
// stacked notifications of the same thread on the device.
type PushPayload struct {
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	Icon               string         `json:"icon,omitempty"`
	Tag                string         `json:"tag,omitempty"`
	URL                string         `json:"url,omitempty"`
	RequireInteraction bool           `json:"requireInteraction,omitempty"`
	Actions            []PushAction   `json:"actions,omitempty"`
	Data               map[string]any `json:"data,omitempty"`
	TTL                int            `json:"ttl"`
	Urgency            string         `json:"urgency"`
}

// PushAction is a button shown on an interactive push notification.
type PushAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// EmailTemplate is a subject/body pair with {{variable}} placeholders.
type EmailTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// Builder turns events into channel-specific payloads.
type Builder struct {
	templates map[notification.Type]EmailTemplate
}

// NewBuilder creates a Builder with the built-in email templates.
func NewBuilder() *Builder {
	return &Builder{templates: defaultTemplates()}
}

// LoadTemplates overlays templates from a YAML file keyed by type. Types
// absent from the file keep their built-in template.
func (b *Builder) LoadTemplates(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}
	var overrides map[notification.Type]EmailTemplate
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	for t, tpl := range overrides {
		if !t.Valid() {
			return fmt.Errorf("unknown notification type %q in templates", t)
		}
		b.templates[t] = tpl
	}
	return nil
}

// content is the channel-neutral core extracted from an event.
type content struct {
	title string
	body  string
	link  string
	tag   string
	vars  map[string]string
}

func (b *Builder) content(ev notification.Event) content {
	data := gjson.ParseBytes(ev.Data)
	get := func(path, fallback string) string {
		if v := data.Get(path); v.Exists() {
			return v.String()
		}
		return fallback
	}

	actor := get("actor_name", "Someone")
	switch ev.Type {
	case notification.TypeTaskAssigned:
		title := get("task_title", "a task")
		return content{
			title: "New task assigned",
			body:  fmt.Sprintf("%s assigned you %q", actor, title),
			link:  "/tasks/" + get("task_id", ""),
			tag:   "task-" + get("task_id", ""),
			vars:  map[string]string{"actor": actor, "task": title},
		}
	case notification.TypeTaskCompleted:
		title := get("task_title", "a task")
		return content{
			title: "Task completed",
			body:  fmt.Sprintf("%s completed %q", actor, title),
			link:  "/tasks/" + get("task_id", ""),
			tag:   "task-" + get("task_id", ""),
			vars:  map[string]string{"actor": actor, "task": title},
		}
	case notification.TypeTaskDueSoon:
		title := get("task_title", "a task")
		due := get("due_date", "")
		return content{
			title: "Task due soon",
			body:  fmt.Sprintf("%q is due %s", title, due),
			link:  "/tasks/" + get("task_id", ""),
			tag:   "task-due-" + get("task_id", ""),
			vars:  map[string]string{"task": title, "due": due},
		}
	case notification.TypeTeamInvite:
		teamName := get("team_name", "a team")
		return content{
			title: "Team invitation",
			body:  fmt.Sprintf("%s invited you to join %s", actor, teamName),
			link:  "/invites/" + get("invite_id", ""),
			tag:   "invite-" + get("invite_id", ""),
			vars:  map[string]string{"actor": actor, "team": teamName},
		}
	case notification.TypeTeamMemberJoined:
		teamName := get("team_name", "your team")
		return content{
			title: "New team member",
			body:  fmt.Sprintf("%s joined %s", actor, teamName),
			link:  "/teams/" + get("team_id", ""),
			tag:   "team-" + get("team_id", ""),
			vars:  map[string]string{"actor": actor, "team": teamName},
		}
	case notification.TypeChatMessage:
		preview := get("preview", "")
		return content{
			title: actor,
			body:  preview,
			link:  "/chat/" + get("conversation_id", ""),
			tag:   "chat-" + get("conversation_id", ""),
			vars:  map[string]string{"actor": actor, "preview": preview},
		}
	case notification.TypeCallIncoming:
		return content{
			title: "Incoming call",
			body:  fmt.Sprintf("%s is calling you", actor),
			link:  "/calls/" + get("call_id", ""),
			tag:   "call-" + get("call_id", ""),
			vars:  map[string]string{"actor": actor},
		}
	case notification.TypeCallMissed:
		return content{
			title: "Missed call",
			body:  fmt.Sprintf("You missed a call from %s", actor),
			link:  "/calls",
			tag:   "call-" + get("call_id", ""),
			vars:  map[string]string{"actor": actor},
		}
	case notification.TypeEventReminder:
		eventTitle := get("event_title", "an event")
		starts := get("starts_at", "")
		return content{
			title: "Event reminder",
			body:  fmt.Sprintf("%q starts %s", eventTitle, starts),
			link:  "/calendar/" + get("event_id", ""),
			tag:   "event-" + get("event_id", ""),
			vars:  map[string]string{"event": eventTitle, "starts": starts},
		}
	case notification.TypeNoteShared:
		noteTitle := get("note_title", "a note")
		return content{
			title: "Note shared with you",
			body:  fmt.Sprintf("%s shared %q with you", actor, noteTitle),
			link:  "/notes/" + get("note_id", ""),
			tag:   "note-" + get("note_id", ""),
			vars:  map[string]string{"actor": actor, "note": noteTitle},
		}
	}
	return content{
		title: "Notification",
		body:  "",
		vars:  map[string]string{"actor": actor},
	}
}

// InApp builds the notification row to persist for one recipient.
func (b *Builder) InApp(ev notification.Event, userID string) notification.Notification {
	c := b.content(ev)

	var metadata map[string]any
	if len(ev.Data) > 0 {
		if v, ok := gjson.ParseBytes(ev.Data).Value().(map[string]any); ok {
			metadata = v
		}
	}

	created := ev.OccurredAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	return notification.Notification{
		UserID:    userID,
		Type:      ev.Type,
		Title:     c.title,
		Body:      c.body,
		Link:      c.link,
		ActorID:   ev.ActorID,
		Metadata:  metadata,
		CreatedAt: created,
	}
}

// Push builds the payload posted to a push endpoint. Calls demand
// interaction and ship with accept/decline actions; everything else is a
// plain banner.
func (b *Builder) Push(ev notification.Event) PushPayload {
	c := b.content(ev)

	p := PushPayload{
		Title:   c.title,
		Body:    c.body,
		Icon:    "/icons/icon-192.png",
		Tag:     c.tag,
		URL:     c.link,
		TTL:     3600,
		Urgency: "normal",
		Data: map[string]any{
			"type": string(ev.Type),
			"url":  c.link,
		},
	}

	switch ev.Type {
	case notification.TypeCallIncoming:
		p.RequireInteraction = true
		p.TTL = 60
		p.Urgency = "high"
		p.Actions = []PushAction{
			{Action: "accept", Title: "Accept"},
			{Action: "decline", Title: "Decline"},
		}
	case notification.TypeChatMessage:
		p.Actions = []PushAction{
			{Action: "reply", Title: "Reply"},
			{Action: "mark_read", Title: "Mark read"},
		}
	case notification.TypeTeamInvite:
		p.Actions = []PushAction{
			{Action: "view", Title: "View invite"},
		}
	}
	return p
}

// Email renders the template for the event type. Unknown variables in the
// template render as empty strings.
func (b *Builder) Email(ev notification.Event) (subject, body string) {
	c := b.content(ev)
	tpl, ok := b.templates[ev.Type]
	if !ok {
		return c.title, c.body
	}
	return interpolate(tpl.Subject, c.vars), interpolate(tpl.Body, c.vars)
}

// interpolate replaces {{name}} placeholders from vars.
// interpolate substitutes {{name}} placeholders in a single forward pass.
// Inserted values are never re-scanned, so a value containing placeholder
// syntax is emitted verbatim.
func interpolate(s string, vars map[string]string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start
		b.WriteString(s[:start])
		b.WriteString(vars[strings.TrimSpace(s[start+2:end])])
		s = s[end+2:]
	}
}

func defaultTemplates() map[notification.Type]EmailTemplate {
	return map[notification.Type]EmailTemplate{
		notification.TypeTaskAssigned: {
			Subject: "{{actor}} assigned you a task",
			Body:    "{{actor}} assigned you the task \"{{task}}\". Open the app to see the details.",
		},
		notification.TypeTaskDueSoon: {
			Subject: "Task due soon: {{task}}",
			Body:    "Your task \"{{task}}\" is due {{due}}.",
		},
		notification.TypeTeamInvite: {
			Subject: "You're invited to join {{team}}",
			Body:    "{{actor}} invited you to join the team {{team}}. Accept or decline the invite in the app.",
		},
		notification.TypeCallMissed: {
			Subject: "Missed call from {{actor}}",
			Body:    "You missed a call from {{actor}} while you were away.",
		},
		notification.TypeEventReminder: {
			Subject: "Reminder: {{event}}",
			Body:    "Your event \"{{event}}\" starts {{starts}}.",
		},
		notification.TypeNoteShared: {
			Subject: "{{actor}} shared a note with you",
			Body:    "{{actor}} shared the note \"{{note}}\" with you.",
		},
	}
}
