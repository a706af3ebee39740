// Package calendar defines the calendar event row shape.
package calendar

import "time"

// Event represents a calendar event row.
type Event struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	Location     string
	StartsAt     time.Time
	EndsAt       time.Time
	Attendees    []string
	ReminderLead time.Duration
	ReminderSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReminderDue reports whether a reminder should fire at now.
func (e Event) ReminderDue(now time.Time) bool {
	if e.ReminderSent || e.ReminderLead <= 0 {
		return false
	}
	return !now.Before(e.StartsAt.Add(-e.ReminderLead)) && now.Before(e.StartsAt)
}
