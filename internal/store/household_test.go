package store

import (
	"testing"
)

func TestHouseholdCreateRenameArchive(t *testing.T) {
	db, orgID := setupTestDB(t)
	hs := NewHouseholdStore(db)

	h, err := hs.Create(orgID, "Jones Family")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Jones Family" {
		t.Errorf("name = %q, want %q", h.Name, "Jones Family")
	}

	renamed, err := hs.Rename(orgID, h.ID, "Jones-Smith Family")
	if err != nil {
		t.Fatalf("rename household: %v", err)
	}
	if renamed.Name != "Jones-Smith Family" {
		t.Errorf("name = %q, want %q", renamed.Name, "Jones-Smith Family")
	}

	tx, _ := db.Begin()
	if err := hs.ArchiveTx(tx, orgID, h.ID); err != nil {
		t.Fatalf("archive household: %v", err)
	}
	tx.Commit()

	list, _ := hs.List(orgID, false)
	if len(list) != 0 {
		t.Errorf("len(households) = %d, want 0 after archive", len(list))
	}
	list, _ = hs.List(orgID, true)
	if len(list) != 1 || !list[0].Archived {
		t.Errorf("expected one archived household, got %v", list)
	}
}

func TestHouseholdMembers(t *testing.T) {
	db, orgID := setupTestDB(t)
	hs := NewHouseholdStore(db)
	ps := NewPersonStore(db)

	h, _ := hs.Create(orgID, "Garcia Family")

	tx, _ := db.Begin()
	p1, _ := ps.CreateTx(tx, orgID, "Maria", "", "", "active", nil)
	p2, _ := ps.CreateTx(tx, orgID, "Luis", "", "", "active", nil)
	tx.Commit()

	tx, _ = db.Begin()
	if _, err := hs.AddMemberTx(tx, h.ID, p1, "head"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := hs.AddMemberTx(tx, h.ID, p2, "child"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	tx.Commit()

	members, err := hs.Members(h.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len(members) = %d, want 2", len(members))
	}

	count, err := hs.CountMembers(h.ID)
	if err != nil {
		t.Fatalf("count members: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	member, err := hs.GetMember(h.ID, p1)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if member == nil {
		t.Fatal("expected member, got nil")
	}
	if member.Relationship != "head" {
		t.Errorf("relationship = %q, want %q", member.Relationship, "head")
	}

	byPerson, err := hs.MemberByPerson(p2)
	if err != nil {
		t.Fatalf("member by person: %v", err)
	}
	if byPerson == nil || byPerson.HouseholdID != h.ID {
		t.Errorf("member by person = %v, want household %d", byPerson, h.ID)
	}
}

func TestHouseholdRemoveMember(t *testing.T) {
	db, orgID := setupTestDB(t)
	hs := NewHouseholdStore(db)
	ps := NewPersonStore(db)

	h, _ := hs.Create(orgID, "Kim Family")

	tx, _ := db.Begin()
	p, _ := ps.CreateTx(tx, orgID, "Soo", "", "", "active", nil)
	hs.AddMemberTx(tx, h.ID, p, "head")
	tx.Commit()

	tx, _ = db.Begin()
	if err := hs.RemoveMemberTx(tx, h.ID, p); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	tx.Commit()

	member, _ := hs.GetMember(h.ID, p)
	if member != nil {
		t.Error("expected nil member after removal")
	}

	count, _ := hs.CountMembers(h.ID)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestHouseholdRemoveMemberByPerson(t *testing.T) {
	db, orgID := setupTestDB(t)
	hs := NewHouseholdStore(db)
	ps := NewPersonStore(db)

	h, _ := hs.Create(orgID, "Okafor Family")

	tx, _ := db.Begin()
	p, _ := ps.CreateTx(tx, orgID, "Ada", "", "", "active", nil)
	hs.AddMemberTx(tx, h.ID, p, "spouse")
	tx.Commit()

	tx, _ = db.Begin()
	if err := hs.RemoveMemberByPersonTx(tx, p); err != nil {
		t.Fatalf("remove member by person: %v", err)
	}
	tx.Commit()

	byPerson, _ := hs.MemberByPerson(p)
	if byPerson != nil {
		t.Error("expected nil membership after removal")
	}
}
