package model

import "time"

type Household struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Name           string    `json:"name"`
	Archived       bool      `json:"archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Household member relationships.
const (
	RelationshipHead   = "head"
	RelationshipSpouse = "spouse"
	RelationshipChild  = "child"
	RelationshipOther  = "other"
)

// ValidRelationship reports whether r is one of the known relationships.
func ValidRelationship(r string) bool {
	return r == RelationshipHead || r == RelationshipSpouse ||
		r == RelationshipChild || r == RelationshipOther
}

// HouseholdMember links a person to a household. A person belongs to at most
// one household at a time.
type HouseholdMember struct {
	ID           int64     `json:"id"`
	HouseholdID  int64     `json:"household_id"`
	PersonID     int64     `json:"person_id"`
	Relationship string    `json:"relationship"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
