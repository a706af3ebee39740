// Package task defines the task row shape mirrored from the hosted table.
package task

import "time"

// Task represents a task row.
type Task struct {
	ID          string
	OwnerID     string
	AssigneeID  string
	ProjectID   string
	Title       string
	Description string
	Status      Status
	Priority    string
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status is the task workflow state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}
