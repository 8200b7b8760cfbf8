package model

import "time"

// Tag is referenced inline from Person.TagIDs; archiving a tag cascades the
// removal of every reference before the tag is hidden from lookups.
type Tag struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Name           string    `json:"name"`
	Color          string    `json:"color,omitempty"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
