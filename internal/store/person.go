package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/steeplehq/steeple/internal/model"
)

type PersonStore struct {
	db *sql.DB
}

func NewPersonStore(db *sql.DB) *PersonStore {
	return &PersonStore{db: db}
}

const personCols = `id, organization_id, name, email, phone, status, fields, household_id, created_at, updated_at`

func scanPerson(scanner interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	var fields string
	var householdID sql.NullInt64
	err := scanner.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Email, &p.Phone, &p.Status,
		&fields, &householdID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &p.Fields); err != nil {
		return nil, fmt.Errorf("decode fields for person %d: %w", p.ID, err)
	}
	if householdID.Valid {
		p.HouseholdID = &householdID.Int64
	}
	return &p, nil
}

// GetByID returns the person with their tag ids loaded, or nil if the id does
// not resolve within the organization.
func (s *PersonStore) GetByID(orgID, id int64) (*model.Person, error) {
	row := s.db.QueryRow(
		`SELECT `+personCols+` FROM people WHERE organization_id = ? AND id = ?`,
		orgID, id,
	)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}

	tagIDs, err := s.TagIDs(id)
	if err != nil {
		return nil, err
	}
	p.TagIDs = tagIDs
	return p, nil
}

func (s *PersonStore) List(orgID int64) ([]model.Person, error) {
	rows, err := s.db.Query(
		`SELECT `+personCols+` FROM people WHERE organization_id = ? ORDER BY name ASC, id ASC`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagsByPerson, err := s.tagIDsForOrg(orgID)
	if err != nil {
		return nil, err
	}
	for i := range people {
		people[i].TagIDs = tagsByPerson[people[i].ID]
	}
	return people, nil
}

// TagIDs returns the person's tag references in insertion order.
func (s *PersonStore) TagIDs(personID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT tag_id FROM person_tags WHERE person_id = ? ORDER BY created_at ASC, tag_id ASC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list person tags: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tag id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PersonStore) tagIDsForOrg(orgID int64) (map[int64][]int64, error) {
	rows, err := s.db.Query(
		`SELECT pt.person_id, pt.tag_id
		 FROM person_tags pt
		 JOIN people p ON p.id = pt.person_id
		 WHERE p.organization_id = ?
		 ORDER BY pt.created_at ASC, pt.tag_id ASC`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list org person tags: %w", err)
	}
	defer rows.Close()

	byPerson := make(map[int64][]int64)
	for rows.Next() {
		var personID, tagID int64
		if err := rows.Scan(&personID, &tagID); err != nil {
			return nil, fmt.Errorf("scan person tag: %w", err)
		}
		byPerson[personID] = append(byPerson[personID], tagID)
	}
	return byPerson, rows.Err()
}

func encodeFields(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(data), nil
}

// CreateTx inserts a person row. Tag references are written separately via
// ReplaceTagsTx so the whole create commits or rolls back as one unit.
func (s *PersonStore) CreateTx(tx *sql.Tx, orgID int64, name, email, phone, status string, fields map[string]any) (int64, error) {
	encoded, err := encodeFields(fields)
	if err != nil {
		return 0, err
	}
	result, err := tx.Exec(
		`INSERT INTO people (organization_id, name, email, phone, status, fields) VALUES (?, ?, ?, ?, ?, ?)`,
		orgID, name, email, phone, status, encoded,
	)
	if err != nil {
		return 0, fmt.Errorf("insert person: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *PersonStore) UpdateTx(tx *sql.Tx, orgID, id int64, name, email, phone, status string, fields map[string]any) error {
	encoded, err := encodeFields(fields)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`UPDATE people SET name = ?, email = ?, phone = ?, status = ?, fields = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE organization_id = ? AND id = ?`,
		name, email, phone, status, encoded, orgID, id,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return nil
}

// ReplaceTagsTx rewrites the person's tag set to exactly tagIDs.
func (s *PersonStore) ReplaceTagsTx(tx *sql.Tx, personID int64, tagIDs []int64) error {
	if _, err := tx.Exec(`DELETE FROM person_tags WHERE person_id = ?`, personID); err != nil {
		return fmt.Errorf("clear person tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(
			`INSERT INTO person_tags (person_id, tag_id) VALUES (?, ?)`,
			personID, tagID,
		); err != nil {
			return fmt.Errorf("insert person tag %d: %w", tagID, err)
		}
	}
	return nil
}

// DeleteTagRefsByTagTx removes every reference to the tag. Tag ids are
// org-scoped, so no organization filter is needed.
func (s *PersonStore) DeleteTagRefsByTagTx(tx *sql.Tx, tagID int64) error {
	if _, err := tx.Exec(`DELETE FROM person_tags WHERE tag_id = ?`, tagID); err != nil {
		return fmt.Errorf("delete tag refs: %w", err)
	}
	return nil
}

func (s *PersonStore) DeleteTx(tx *sql.Tx, orgID, id int64) error {
	if _, err := tx.Exec(`DELETE FROM person_tags WHERE person_id = ?`, id); err != nil {
		return fmt.Errorf("delete person tag refs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM people WHERE organization_id = ? AND id = ?`, orgID, id); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return nil
}

// SetHouseholdTx points the person at a household, or clears the pointer when
// householdID is nil. Always paired with a household_members write in the
// same transaction.
func (s *PersonStore) SetHouseholdTx(tx *sql.Tx, personID int64, householdID *int64) error {
	var val any
	if householdID != nil {
		val = *householdID
	}
	if _, err := tx.Exec(
		`UPDATE people SET household_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		val, personID,
	); err != nil {
		return fmt.Errorf("set person household: %w", err)
	}
	return nil
}
