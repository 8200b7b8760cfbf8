package model

import "time"

// Note is attached to exactly one person. The body is immutable once created;
// display order is creation time descending.
type Note struct {
	ID             int64      `json:"id"`
	OrganizationID int64      `json:"organization_id"`
	PersonID       int64      `json:"person_id"`
	Body           string     `json:"body"`
	Visibility     Visibility `json:"visibility"`
	CreatedAt      time.Time  `json:"created_at"`
}
