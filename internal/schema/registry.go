// Package schema owns the runtime-defined profile field model: definitions,
// their lifecycle (define, archive, reorder), and coercion of person field
// values to the declared types. It is the single authority on which fields a
// role may see; no other component decides that independently.
package schema

import (
	"regexp"

	"github.com/steeplehq/steeple/internal/apperr"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/store"
)

var keyRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

type Registry struct {
	fields *store.FieldDefStore
}

func NewRegistry(fields *store.FieldDefStore) *Registry {
	return &Registry{fields: fields}
}

// FieldInput carries a new field definition. OrderIndex nil means "append".
type FieldInput struct {
	Key        string
	Label      string
	Type       model.FieldType
	Options    []model.FieldOption
	Required   bool
	Visibility model.Visibility
	OrderIndex *int
}

// DefineField validates and stores a new definition. Keys are identifier-safe
// and unique for the lifetime of the organization: a key that was ever used,
// archived or not, cannot be defined again.
func (r *Registry) DefineField(orgID int64, in FieldInput) (*model.FieldDef, error) {
	if !keyRegexp.MatchString(in.Key) {
		return nil, apperr.Validationf("field key %q must be a lowercase identifier (letters, digits, underscores)", in.Key)
	}
	if !in.Type.Valid() {
		return nil, apperr.Validationf("unknown field type %q", in.Type)
	}
	if in.Type.HasOptions() {
		if len(in.Options) == 0 {
			return nil, apperr.Validationf("field type %q requires at least one option", in.Type)
		}
		seen := make(map[string]bool, len(in.Options))
		for _, o := range in.Options {
			if o.Value == "" {
				return nil, apperr.Validationf("field %q has an option with an empty value", in.Key)
			}
			if seen[o.Value] {
				return nil, apperr.Validationf("field %q repeats option value %q", in.Key, o.Value)
			}
			seen[o.Value] = true
		}
	} else if len(in.Options) > 0 {
		return nil, apperr.Validationf("field type %q does not take options", in.Type)
	}

	switch in.Visibility {
	case "":
		in.Visibility = model.VisibilityPublic
	case model.VisibilityPublic, model.VisibilityStaffOnly:
	default:
		return nil, apperr.Validationf("field visibility must be %q or %q", model.VisibilityPublic, model.VisibilityStaffOnly)
	}

	if in.Label == "" {
		in.Label = in.Key
	}

	existing, err := r.fields.GetByKey(orgID, in.Key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validationf("field key %q is already taken", in.Key)
	}

	orderIndex := 0
	if in.OrderIndex != nil {
		orderIndex = *in.OrderIndex
	} else {
		count, err := r.fields.CountActive(orgID)
		if err != nil {
			return nil, err
		}
		orderIndex = count
	}

	return r.fields.Create(orgID, in.Key, in.Label, in.Type, in.Options, in.Required, in.Visibility, orderIndex)
}

// ArchiveField soft-deletes the definition. Values already stored under the
// key stay on person records for history; forms simply stop rendering it.
// Archiving an already-archived field is a no-op success.
func (r *Registry) ArchiveField(orgID int64, key string) error {
	def, err := r.fields.GetByKey(orgID, key)
	if err != nil {
		return err
	}
	if def == nil {
		return apperr.Referencef("no field with key %q", key)
	}
	if def.Archived {
		return nil
	}
	return r.fields.Archive(orgID, key)
}

// Reorder reassigns a dense 0..n-1 display order matching keys. The key set
// must be exactly the current non-archived set.
func (r *Registry) Reorder(orgID int64, keys []string) error {
	current, err := r.fields.List(orgID, false)
	if err != nil {
		return err
	}
	if len(keys) != len(current) {
		return apperr.Validationf("reorder needs exactly the %d active field keys, got %d", len(current), len(keys))
	}

	active := make(map[string]bool, len(current))
	for _, d := range current {
		active[d.Key] = true
	}
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !active[key] {
			return apperr.Validationf("unknown or archived field key %q in reorder", key)
		}
		if seen[key] {
			return apperr.Validationf("field key %q repeated in reorder", key)
		}
		seen[key] = true
	}

	return r.fields.SetOrder(orgID, keys)
}

// Fields returns definitions in display order.
func (r *Registry) Fields(orgID int64, includeArchived bool) ([]model.FieldDef, error) {
	return r.fields.List(orgID, includeArchived)
}

// VisibleFieldsFor returns the non-archived definitions the role may see, in
// display order. Staff-only fields are hidden from viewers.
func (r *Registry) VisibleFieldsFor(orgID int64, role model.Role) ([]model.FieldDef, error) {
	defs, err := r.fields.List(orgID, false)
	if err != nil {
		return nil, err
	}
	visible := defs[:0]
	for _, d := range defs {
		if d.Visibility == model.VisibilityPublic || role != model.RoleViewer {
			visible = append(visible, d)
		}
	}
	return visible, nil
}

// CoerceAssignments type-checks a fields map against the live definitions and
// returns the canonical values. Keys that are unknown or archived fail with a
// ValidationError: archived keys keep their historical values readable but
// accept no new writes.
func (r *Registry) CoerceAssignments(orgID int64, fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return map[string]any{}, nil
	}

	defs, err := r.fields.List(orgID, true)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]model.FieldDef, len(defs))
	for _, d := range defs {
		byKey[d.Key] = d
	}

	out := make(map[string]any, len(fields))
	for key, raw := range fields {
		def, ok := byKey[key]
		if !ok {
			return nil, apperr.Validationf("unknown field key %q", key)
		}
		if def.Archived {
			return nil, apperr.Validationf("field %q is archived and no longer accepts values", key)
		}
		val, err := Coerce(def, raw)
		if err != nil {
			return nil, err
		}
		out[key] = val.Native()
	}
	return out, nil
}
