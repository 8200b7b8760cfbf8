package model

import "time"

// Person statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusVisitor  = "visitor"
)

// ValidStatus reports whether s is one of the known person statuses.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive || s == StatusVisitor
}

// Person is one directory record. Fields holds values for runtime-defined
// profile fields keyed by FieldDef.Key; every value is validated against the
// definition's declared type at write time. TagIDs has set semantics and
// HouseholdID, when set, agrees with exactly one household member row.
type Person struct {
	ID             int64          `json:"id"`
	OrganizationID int64          `json:"organization_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Status         string         `json:"status"`
	Fields         map[string]any `json:"fields"`
	TagIDs         []int64        `json:"tag_ids"`
	HouseholdID    *int64         `json:"household_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
