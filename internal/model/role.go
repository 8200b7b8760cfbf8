package model

// Role is the four-level access tier supplied by the fronting authorization
// layer on every request. The core is policy-free beyond field and note
// visibility.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Visibility is the coarse two-level access tier on fields and notes,
// independent of the role system.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityStaffOnly Visibility = "staff_only"
	// VisibilityOrg marks notes readable by every role.
	VisibilityOrg Visibility = "org"
)
