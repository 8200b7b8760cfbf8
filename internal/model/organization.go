package model

import "time"

// Organization is the scoping root: every other entity belongs to exactly one
// organization, and cross-organization references are forbidden.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
