// Package integrity is the single write path for roster records. Every
// mutation runs under the owning organization's lock and inside one SQLite
// transaction, so a cascade is all-or-nothing and readers observe either its
// pre- or post-state, never the middle. The invariant it exists to keep: no
// stored id may ever point at an entity that no longer resolves.
package integrity

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/steeplehq/steeple/internal/apperr"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/schema"
	"github.com/steeplehq/steeple/internal/store"
)

var hexColorRegexp = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Coordinator struct {
	db         *sql.DB
	schema     *schema.Registry
	people     *store.PersonStore
	tags       *store.TagStore
	households *store.HouseholdStore
	notes      *store.NoteStore

	mu       sync.Mutex
	orgLocks map[int64]*sync.Mutex
}

func NewCoordinator(db *sql.DB, reg *schema.Registry, people *store.PersonStore, tags *store.TagStore, households *store.HouseholdStore, notes *store.NoteStore) *Coordinator {
	return &Coordinator{
		db:         db,
		schema:     reg,
		people:     people,
		tags:       tags,
		households: households,
		notes:      notes,
		orgLocks:   make(map[int64]*sync.Mutex),
	}
}

// lockOrg serializes writers per organization and returns the unlock func.
func (c *Coordinator) lockOrg(orgID int64) func() {
	c.mu.Lock()
	lock, ok := c.orgLocks[orgID]
	if !ok {
		lock = &sync.Mutex{}
		c.orgLocks[orgID] = lock
	}
	c.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// --- People ---

// PersonInput carries a new person record.
type PersonInput struct {
	Name   string
	Email  string
	Phone  string
	Status string
	Fields map[string]any
	TagIDs []int64
}

// PersonPatch is a partial update: nil members are left untouched. Inside
// Fields, a nil value removes the key; anything else is validated and set.
type PersonPatch struct {
	Name   *string
	Email  *string
	Phone  *string
	Status *string
	Fields map[string]any
	TagIDs *[]int64
}

func (c *Coordinator) CreatePerson(orgID int64, in PersonInput) (*model.Person, error) {
	defer c.lockOrg(orgID)()

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if in.Status == "" {
		in.Status = model.StatusActive
	}
	if !model.ValidStatus(in.Status) {
		return nil, apperr.Validationf("status must be active, inactive, or visitor")
	}

	fields, err := c.schema.CoerceAssignments(orgID, in.Fields)
	if err != nil {
		return nil, err
	}

	tagIDs, err := c.checkTagRefs(orgID, in.TagIDs)
	if err != nil {
		return nil, err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := c.people.CreateTx(tx, orgID, in.Name, in.Email, in.Phone, in.Status, fields)
	if err != nil {
		return nil, err
	}
	if err := c.people.ReplaceTagsTx(tx, id, tagIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return c.people.GetByID(orgID, id)
}

func (c *Coordinator) UpdatePerson(orgID, id int64, patch PersonPatch) (*model.Person, error) {
	defer c.lockOrg(orgID)()

	existing, err := c.people.GetByID(orgID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.Referencef("no person with id %d", id)
	}

	name, email, phone, status := existing.Name, existing.Email, existing.Phone, existing.Status
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validationf("name is required")
		}
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if patch.Phone != nil {
		phone = *patch.Phone
	}
	if patch.Status != nil {
		status = *patch.Status
		if !model.ValidStatus(status) {
			return nil, apperr.Validationf("status must be active, inactive, or visitor")
		}
	}

	fields := existing.Fields
	if patch.Fields != nil {
		fields, err = c.mergeFields(orgID, existing.Fields, patch.Fields)
		if err != nil {
			return nil, err
		}
	}

	tagIDs := existing.TagIDs
	replaceTags := false
	if patch.TagIDs != nil {
		tagIDs, err = c.checkTagRefs(orgID, *patch.TagIDs)
		if err != nil {
			return nil, err
		}
		replaceTags = true
	}

	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := c.people.UpdateTx(tx, orgID, id, name, email, phone, status, fields); err != nil {
		return nil, err
	}
	if replaceTags {
		if err := c.people.ReplaceTagsTx(tx, id, tagIDs); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return c.people.GetByID(orgID, id)
}

// DeletePerson removes the person and everything that references them: tag
// references, their household membership row, and their notes.
func (c *Coordinator) DeletePerson(orgID, id int64) error {
	defer c.lockOrg(orgID)()

	existing, err := c.people.GetByID(orgID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.Referencef("no person with id %d", id)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := c.notes.DeleteForPersonTx(tx, id); err != nil {
		return err
	}
	if err := c.households.RemoveMemberByPersonTx(tx, id); err != nil {
		return err
	}
	if err := c.people.DeleteTx(tx, orgID, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// mergeFields applies patch semantics on top of existing values: nil removes
// the key, everything else is coerced against the live definitions.
func (c *Coordinator) mergeFields(orgID int64, existing, patch map[string]any) (map[string]any, error) {
	assignments := make(map[string]any, len(patch))
	var removals []string
	for key, raw := range patch {
		if raw == nil {
			removals = append(removals, key)
			continue
		}
		assignments[key] = raw
	}

	coerced, err := c.schema.CoerceAssignments(orgID, assignments)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(existing)+len(coerced))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range coerced {
		merged[k] = v
	}
	for _, k := range removals {
		delete(merged, k)
	}
	return merged, nil
}

// checkTagRefs dedups ids preserving order and verifies each resolves to a
// live tag in the organization.
func (c *Coordinator) checkTagRefs(orgID int64, ids []int64) ([]int64, error) {
	seen := make(map[int64]bool, len(ids))
	deduped := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			deduped = append(deduped, id)
		}
	}

	missing, err := c.tags.MissingActive(orgID, deduped)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, apperr.Referencef("tag id %d does not resolve to a live tag", missing[0])
	}
	return deduped, nil
}

// --- Tags ---

func (c *Coordinator) CreateTag(orgID int64, name, color string) (*model.Tag, error) {
	defer c.lockOrg(orgID)()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("tag name is required")
	}
	if color != "" && !hexColorRegexp.MatchString(color) {
		return nil, apperr.Validationf("tag color must be a hex color (e.g. #FF0000)")
	}
	return c.tags.Create(orgID, name, color)
}

func (c *Coordinator) UpdateTag(orgID, id int64, name, color string) (*model.Tag, error) {
	defer c.lockOrg(orgID)()

	tag, err := c.tags.GetByID(orgID, id)
	if err != nil {
		return nil, err
	}
	if tag == nil || tag.Archived {
		return nil, apperr.Referencef("no tag with id %d", id)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("tag name is required")
	}
	if color != "" && !hexColorRegexp.MatchString(color) {
		return nil, apperr.Validationf("tag color must be a hex color (e.g. #FF0000)")
	}
	return c.tags.Update(orgID, id, name, color)
}

// ArchiveTag removes every person's reference to the tag, then archives it,
// in that order and in one transaction: the tag stays resolvable until no
// reference to it remains. Archiving an archived tag is a no-op success.
func (c *Coordinator) ArchiveTag(orgID, id int64) error {
	defer c.lockOrg(orgID)()

	tag, err := c.tags.GetByID(orgID, id)
	if err != nil {
		return err
	}
	if tag == nil {
		return apperr.Referencef("no tag with id %d", id)
	}
	if tag.Archived {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := c.people.DeleteTagRefsByTagTx(tx, id); err != nil {
		return err
	}
	if err := c.tags.ArchiveTx(tx, orgID, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// --- Households ---

func (c *Coordinator) CreateHousehold(orgID int64, name string) (*model.Household, error) {
	defer c.lockOrg(orgID)()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("household name is required")
	}
	return c.households.Create(orgID, name)
}

func (c *Coordinator) RenameHousehold(orgID, id int64, name string) (*model.Household, error) {
	defer c.lockOrg(orgID)()

	h, err := c.households.GetByID(orgID, id)
	if err != nil {
		return nil, err
	}
	if h == nil || h.Archived {
		return nil, apperr.Referencef("no household with id %d", id)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validationf("household name is required")
	}
	return c.households.Rename(orgID, id, name)
}

// AddHouseholdMember links the person to the household. The person must not
// currently belong to any household; the membership row and the person's
// household pointer are written together.
func (c *Coordinator) AddHouseholdMember(orgID, householdID, personID int64, relationship string) (*model.HouseholdMember, error) {
	defer c.lockOrg(orgID)()

	h, err := c.households.GetByID(orgID, householdID)
	if err != nil {
		return nil, err
	}
	if h == nil || h.Archived {
		return nil, apperr.Referencef("no household with id %d", householdID)
	}

	person, err := c.people.GetByID(orgID, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, apperr.Referencef("no person with id %d", personID)
	}

	if relationship == "" {
		relationship = model.RelationshipOther
	}
	if !model.ValidRelationship(relationship) {
		return nil, apperr.Validationf("relationship must be head, spouse, child, or other")
	}

	if person.HouseholdID != nil {
		return nil, apperr.Conflictf("person %d already belongs to household %d; remove them first", personID, *person.HouseholdID)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := c.households.AddMemberTx(tx, householdID, personID, relationship); err != nil {
		return nil, err
	}
	if err := c.people.SetHouseholdTx(tx, personID, &householdID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return c.households.GetMember(householdID, personID)
}

// RemoveHouseholdMember deletes the membership row and clears the person's
// household pointer as one transaction.
func (c *Coordinator) RemoveHouseholdMember(orgID, householdID, personID int64) error {
	defer c.lockOrg(orgID)()

	person, err := c.people.GetByID(orgID, personID)
	if err != nil {
		return err
	}
	if person == nil {
		return apperr.Referencef("no person with id %d", personID)
	}

	member, err := c.households.GetMember(householdID, personID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperr.Referencef("person %d is not a member of household %d", personID, householdID)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := c.households.RemoveMemberTx(tx, householdID, personID); err != nil {
		return err
	}
	if err := c.people.SetHouseholdTx(tx, personID, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ArchiveHousehold archives the household. With active members it fails with
// a ConflictError unless cascade is set, in which case every membership is
// removed (row deleted, pointer cleared) before the household is archived.
// Archiving an archived household is a no-op success.
func (c *Coordinator) ArchiveHousehold(orgID, id int64, cascade bool) error {
	defer c.lockOrg(orgID)()

	h, err := c.households.GetByID(orgID, id)
	if err != nil {
		return err
	}
	if h == nil {
		return apperr.Referencef("no household with id %d", id)
	}
	if h.Archived {
		return nil
	}

	members, err := c.households.Members(id)
	if err != nil {
		return err
	}
	if len(members) > 0 && !cascade {
		return apperr.Conflictf("household %d still has %d member(s); pass cascade to remove them", id, len(members))
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range members {
		if err := c.households.RemoveMemberTx(tx, id, m.PersonID); err != nil {
			return err
		}
		if err := c.people.SetHouseholdTx(tx, m.PersonID, nil); err != nil {
			return err
		}
	}
	if err := c.households.ArchiveTx(tx, orgID, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// --- Notes ---

func (c *Coordinator) CreateNote(orgID, personID int64, body string, visibility model.Visibility) (*model.Note, error) {
	defer c.lockOrg(orgID)()

	person, err := c.people.GetByID(orgID, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, apperr.Referencef("no person with id %d", personID)
	}

	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validationf("note body is required")
	}
	switch visibility {
	case "":
		visibility = model.VisibilityOrg
	case model.VisibilityOrg, model.VisibilityStaffOnly:
	default:
		return nil, apperr.Validationf("note visibility must be %q or %q", model.VisibilityOrg, model.VisibilityStaffOnly)
	}

	return c.notes.Create(orgID, personID, body, visibility)
}

// --- Field definitions ---
// Schema writes go through the coordinator too so they serialize with record
// writes: archiving a field must not interleave with a person create that is
// validating against it.

func (c *Coordinator) DefineField(orgID int64, in schema.FieldInput) (*model.FieldDef, error) {
	defer c.lockOrg(orgID)()
	return c.schema.DefineField(orgID, in)
}

func (c *Coordinator) ArchiveField(orgID int64, key string) error {
	defer c.lockOrg(orgID)()
	return c.schema.ArchiveField(orgID, key)
}

func (c *Coordinator) ReorderFields(orgID int64, keys []string) error {
	defer c.lockOrg(orgID)()
	return c.schema.Reorder(orgID, keys)
}
