// Package note defines the note row shape.
package note

import "time"

// Note represents a note row.
type Note struct {
	ID         string
	OwnerID    string
	Title      string
	Content    string
	SharedWith []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
