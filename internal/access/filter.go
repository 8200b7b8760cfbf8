package access

import "github.com/steeplehq/steeple/internal/model"

// FilterPerson returns a copy of p with staff-only field values removed when
// the role is viewer. defs must include archived definitions so historical
// values stay classified. The input is never mutated.
func FilterPerson(p model.Person, defs []model.FieldDef, role model.Role) model.Person {
	if role != model.RoleViewer {
		return p
	}

	staffOnly := make(map[string]bool)
	for _, d := range defs {
		if d.Visibility == model.VisibilityStaffOnly {
			staffOnly[d.Key] = true
		}
	}

	filtered := make(map[string]any, len(p.Fields))
	for k, v := range p.Fields {
		if !staffOnly[k] {
			filtered[k] = v
		}
	}
	p.Fields = filtered
	return p
}

// FilterPeople applies FilterPerson across a list.
func FilterPeople(people []model.Person, defs []model.FieldDef, role model.Role) []model.Person {
	if role != model.RoleViewer {
		return people
	}
	out := make([]model.Person, len(people))
	for i, p := range people {
		out[i] = FilterPerson(p, defs, role)
	}
	return out
}

// FilterNotes drops staff-only notes for viewers.
func FilterNotes(notes []model.Note, role model.Role) []model.Note {
	if role != model.RoleViewer {
		return notes
	}
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if n.Visibility != model.VisibilityStaffOnly {
			out = append(out, n)
		}
	}
	return out
}
