package store

import (
	"testing"

	"github.com/steeplehq/steeple/internal/model"
)

func TestNoteCreateAndList(t *testing.T) {
	db, orgID := setupTestDB(t)
	ns := NewNoteStore(db)
	ps := NewPersonStore(db)

	tx, _ := db.Begin()
	personID, _ := ps.CreateTx(tx, orgID, "Nina", "", "", "active", nil)
	tx.Commit()

	note, err := ns.Create(orgID, personID, "Prefers phone contact", model.VisibilityOrg)
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if note.Body != "Prefers phone contact" {
		t.Errorf("body = %q, want %q", note.Body, "Prefers phone contact")
	}
	if note.Visibility != model.VisibilityOrg {
		t.Errorf("visibility = %q, want %q", note.Visibility, model.VisibilityOrg)
	}

	if _, err := ns.Create(orgID, personID, "Pastoral follow-up pending", model.VisibilityStaffOnly); err != nil {
		t.Fatalf("create second note: %v", err)
	}

	notes, err := ns.ListForPerson(orgID, personID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("len(notes) = %d, want 2", len(notes))
	}
	// Newest first: equal timestamps fall back to id descending
	if notes[0].Body != "Pastoral follow-up pending" {
		t.Errorf("notes[0].Body = %q, want the newer note first", notes[0].Body)
	}
}

func TestNoteDeleteForPerson(t *testing.T) {
	db, orgID := setupTestDB(t)
	ns := NewNoteStore(db)
	ps := NewPersonStore(db)

	tx, _ := db.Begin()
	personID, _ := ps.CreateTx(tx, orgID, "Omar", "", "", "active", nil)
	tx.Commit()

	ns.Create(orgID, personID, "First", model.VisibilityOrg)
	ns.Create(orgID, personID, "Second", model.VisibilityOrg)

	tx, _ = db.Begin()
	if err := ns.DeleteForPersonTx(tx, personID); err != nil {
		t.Fatalf("delete notes: %v", err)
	}
	tx.Commit()

	notes, _ := ns.ListForPerson(orgID, personID)
	if len(notes) != 0 {
		t.Errorf("len(notes) = %d, want 0", len(notes))
	}
}
