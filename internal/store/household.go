package store

import (
	"database/sql"
	"fmt"

	"github.com/steeplehq/steeple/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

const householdCols = `id, organization_id, name, archived, created_at, updated_at`
const householdMemberCols = `id, household_id, person_id, relationship, created_at, updated_at`

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.OrganizationID, &h.Name, &h.Archived, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanHouseholdMember(scanner interface{ Scan(...any) error }) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.PersonID, &m.Relationship, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *HouseholdStore) Create(orgID int64, name string) (*model.Household, error) {
	result, err := s.db.Exec(
		`INSERT INTO households (organization_id, name) VALUES (?, ?)`,
		orgID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(orgID, id)
}

func (s *HouseholdStore) GetByID(orgID, id int64) (*model.Household, error) {
	row := s.db.QueryRow(
		`SELECT `+householdCols+` FROM households WHERE organization_id = ? AND id = ?`,
		orgID, id,
	)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) List(orgID int64, includeArchived bool) ([]model.Household, error) {
	query := `SELECT ` + householdCols + ` FROM households WHERE organization_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

func (s *HouseholdStore) Rename(orgID, id int64, name string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE organization_id = ? AND id = ?`,
		name, orgID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("rename household: %w", err)
	}
	return s.GetByID(orgID, id)
}

func (s *HouseholdStore) ArchiveTx(tx *sql.Tx, orgID, id int64) error {
	_, err := tx.Exec(
		`UPDATE households SET archived = 1, updated_at = CURRENT_TIMESTAMP WHERE organization_id = ? AND id = ?`,
		orgID, id,
	)
	if err != nil {
		return fmt.Errorf("archive household: %w", err)
	}
	return nil
}

func (s *HouseholdStore) Members(householdID int64) ([]model.HouseholdMember, error) {
	rows, err := s.db.Query(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? ORDER BY created_at ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.HouseholdMember
	for rows.Next() {
		m, err := scanHouseholdMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) CountMembers(householdID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM household_members WHERE household_id = ?`,
		householdID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// MemberByPerson returns the person's membership row, or nil. A person has at
// most one.
func (s *HouseholdStore) MemberByPerson(personID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+householdMemberCols+` FROM household_members WHERE person_id = ?`,
		personID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by person: %w", err)
	}
	return m, nil
}

func (s *HouseholdStore) AddMemberTx(tx *sql.Tx, householdID, personID int64, relationship string) (int64, error) {
	result, err := tx.Exec(
		`INSERT INTO household_members (household_id, person_id, relationship) VALUES (?, ?, ?)`,
		householdID, personID, relationship,
	)
	if err != nil {
		return 0, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *HouseholdStore) RemoveMemberTx(tx *sql.Tx, householdID, personID int64) error {
	_, err := tx.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND person_id = ?`,
		householdID, personID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// RemoveMemberByPersonTx drops whatever membership the person holds, if any.
func (s *HouseholdStore) RemoveMemberByPersonTx(tx *sql.Tx, personID int64) error {
	_, err := tx.Exec(`DELETE FROM household_members WHERE person_id = ?`, personID)
	if err != nil {
		return fmt.Errorf("remove member by person: %w", err)
	}
	return nil
}

func (s *HouseholdStore) GetMember(householdID, personID int64) (*model.HouseholdMember, error) {
	row := s.db.QueryRow(
		`SELECT `+householdMemberCols+` FROM household_members WHERE household_id = ? AND person_id = ?`,
		householdID, personID,
	)
	m, err := scanHouseholdMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}
