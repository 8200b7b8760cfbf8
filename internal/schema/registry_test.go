package schema

import (
	"testing"

	"github.com/steeplehq/steeple/internal/apperr"
	"github.com/steeplehq/steeple/internal/database"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/store"
)

func setupRegistry(t *testing.T) (*Registry, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	org, err := store.NewOrganizationStore(db).Create("Test Org")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return NewRegistry(store.NewFieldDefStore(db)), org.ID
}

func TestDefineField(t *testing.T) {
	reg, orgID := setupRegistry(t)

	def, err := reg.DefineField(orgID, FieldInput{Key: "allergies", Type: model.FieldTextarea})
	if err != nil {
		t.Fatalf("define field: %v", err)
	}
	if def.Label != "allergies" {
		t.Errorf("label = %q, want key as fallback label", def.Label)
	}
	if def.Visibility != model.VisibilityPublic {
		t.Errorf("visibility = %q, want default public", def.Visibility)
	}
	if def.OrderIndex != 0 {
		t.Errorf("order_index = %d, want 0", def.OrderIndex)
	}

	// Next field appends
	def2, err := reg.DefineField(orgID, FieldInput{Key: "mobile", Type: model.FieldPhone})
	if err != nil {
		t.Fatalf("define second field: %v", err)
	}
	if def2.OrderIndex != 1 {
		t.Errorf("order_index = %d, want 1", def2.OrderIndex)
	}
}

func TestDefineFieldBadKey(t *testing.T) {
	reg, orgID := setupRegistry(t)

	for _, key := range []string{"", "Shirt", "9lives", "has space", "dash-key"} {
		_, err := reg.DefineField(orgID, FieldInput{Key: key, Type: model.FieldText})
		if !apperr.IsValidation(err) {
			t.Errorf("key %q: expected ValidationError, got %v", key, err)
		}
	}
}

func TestDefineFieldOptions(t *testing.T) {
	reg, orgID := setupRegistry(t)

	// Select without options
	if _, err := reg.DefineField(orgID, FieldInput{Key: "size", Type: model.FieldSelect}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for select without options, got %v", err)
	}

	// Text with options
	_, err := reg.DefineField(orgID, FieldInput{
		Key: "nickname", Type: model.FieldText,
		Options: []model.FieldOption{{Value: "x"}},
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for text with options, got %v", err)
	}

	// Duplicate option values
	_, err = reg.DefineField(orgID, FieldInput{
		Key: "size", Type: model.FieldSelect,
		Options: []model.FieldOption{{Value: "s"}, {Value: "s"}},
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for duplicate options, got %v", err)
	}
}

func TestDefineFieldKeyNeverReused(t *testing.T) {
	reg, orgID := setupRegistry(t)

	if _, err := reg.DefineField(orgID, FieldInput{Key: "campus", Type: model.FieldText}); err != nil {
		t.Fatalf("define field: %v", err)
	}
	if _, err := reg.DefineField(orgID, FieldInput{Key: "campus", Type: model.FieldText}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for duplicate key, got %v", err)
	}

	// Archival does not release the key
	if err := reg.ArchiveField(orgID, "campus"); err != nil {
		t.Fatalf("archive field: %v", err)
	}
	if _, err := reg.DefineField(orgID, FieldInput{Key: "campus", Type: model.FieldText}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for archived key, got %v", err)
	}
}

func TestArchiveField(t *testing.T) {
	reg, orgID := setupRegistry(t)

	if err := reg.ArchiveField(orgID, "missing"); !apperr.IsReference(err) {
		t.Errorf("expected ReferenceError for unknown key, got %v", err)
	}

	reg.DefineField(orgID, FieldInput{Key: "campus", Type: model.FieldText})
	if err := reg.ArchiveField(orgID, "campus"); err != nil {
		t.Fatalf("archive field: %v", err)
	}
	// Idempotent
	if err := reg.ArchiveField(orgID, "campus"); err != nil {
		t.Errorf("re-archive should be a no-op, got %v", err)
	}
}

func TestReorder(t *testing.T) {
	reg, orgID := setupRegistry(t)

	reg.DefineField(orgID, FieldInput{Key: "a", Type: model.FieldText})
	reg.DefineField(orgID, FieldInput{Key: "b", Type: model.FieldText})
	reg.DefineField(orgID, FieldInput{Key: "c", Type: model.FieldText})

	if err := reg.Reorder(orgID, []string{"c", "a", "b"}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	defs, _ := reg.Fields(orgID, false)
	got := []string{defs[0].Key, defs[1].Key, defs[2].Key}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Errorf("order = %v, want [c a b]", got)
	}

	// Wrong cardinality
	if err := reg.Reorder(orgID, []string{"a", "b"}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for partial reorder, got %v", err)
	}
	// Unknown key
	if err := reg.Reorder(orgID, []string{"a", "b", "zz"}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for unknown key, got %v", err)
	}
	// Repeated key
	if err := reg.Reorder(orgID, []string{"a", "b", "b"}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for repeated key, got %v", err)
	}
}

func TestVisibleFieldsFor(t *testing.T) {
	reg, orgID := setupRegistry(t)

	reg.DefineField(orgID, FieldInput{Key: "nickname", Type: model.FieldText})
	reg.DefineField(orgID, FieldInput{Key: "pastoral", Type: model.FieldTextarea, Visibility: model.VisibilityStaffOnly})

	staff, err := reg.VisibleFieldsFor(orgID, model.RoleStaff)
	if err != nil {
		t.Fatalf("visible fields: %v", err)
	}
	if len(staff) != 2 {
		t.Errorf("staff sees %d fields, want 2", len(staff))
	}

	viewer, err := reg.VisibleFieldsFor(orgID, model.RoleViewer)
	if err != nil {
		t.Fatalf("visible fields: %v", err)
	}
	if len(viewer) != 1 || viewer[0].Key != "nickname" {
		t.Errorf("viewer sees %v, want only nickname", viewer)
	}
}

func TestCoerceAssignments(t *testing.T) {
	reg, orgID := setupRegistry(t)

	reg.DefineField(orgID, FieldInput{Key: "pledge", Type: model.FieldNumber})
	reg.DefineField(orgID, FieldInput{Key: "retired", Type: model.FieldText})
	reg.ArchiveField(orgID, "retired")

	out, err := reg.CoerceAssignments(orgID, map[string]any{"pledge": 25.0})
	if err != nil {
		t.Fatalf("coerce assignments: %v", err)
	}
	if out["pledge"] != 25.0 {
		t.Errorf("pledge = %v, want 25", out["pledge"])
	}

	if _, err := reg.CoerceAssignments(orgID, map[string]any{"unknown": "x"}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for unknown key, got %v", err)
	}
	if _, err := reg.CoerceAssignments(orgID, map[string]any{"retired": "x"}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for archived key, got %v", err)
	}
	if _, err := reg.CoerceAssignments(orgID, map[string]any{"pledge": "lots"}); !apperr.IsValidation(err) {
		t.Errorf("expected ValidationError for type mismatch, got %v", err)
	}
}
