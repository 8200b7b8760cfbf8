package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/steeplehq/steeple/internal/model"
)

type FieldDefStore struct {
	db *sql.DB
}

func NewFieldDefStore(db *sql.DB) *FieldDefStore {
	return &FieldDefStore{db: db}
}

const fieldDefCols = `id, organization_id, key, label, type, options, required, visibility, archived, order_index, created_at, updated_at`

func scanFieldDef(scanner interface{ Scan(...any) error }) (*model.FieldDef, error) {
	var d model.FieldDef
	var options string
	err := scanner.Scan(&d.ID, &d.OrganizationID, &d.Key, &d.Label, &d.Type, &options,
		&d.Required, &d.Visibility, &d.Archived, &d.OrderIndex, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &d.Options); err != nil {
		return nil, fmt.Errorf("decode options for field %q: %w", d.Key, err)
	}
	return &d, nil
}

func (s *FieldDefStore) Create(orgID int64, key, label string, typ model.FieldType, options []model.FieldOption, required bool, visibility model.Visibility, orderIndex int) (*model.FieldDef, error) {
	opts, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	result, err := s.db.Exec(
		`INSERT INTO field_defs (organization_id, key, label, type, options, required, visibility, order_index)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		orgID, key, label, typ, string(opts), required, visibility, orderIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("insert field def: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+fieldDefCols+` FROM field_defs WHERE id = ?`, id)
	return scanFieldDef(row)
}

// GetByKey returns the definition for key regardless of archived state, or
// nil if the key has never been defined.
func (s *FieldDefStore) GetByKey(orgID int64, key string) (*model.FieldDef, error) {
	row := s.db.QueryRow(
		`SELECT `+fieldDefCols+` FROM field_defs WHERE organization_id = ? AND key = ?`,
		orgID, key,
	)
	d, err := scanFieldDef(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get field def: %w", err)
	}
	return d, nil
}

// List returns definitions in display order. Archived definitions are
// included only when includeArchived is set; they sort after live ones.
func (s *FieldDefStore) List(orgID int64, includeArchived bool) ([]model.FieldDef, error) {
	query := `SELECT ` + fieldDefCols + ` FROM field_defs WHERE organization_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY archived ASC, order_index ASC, id ASC`

	rows, err := s.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list field defs: %w", err)
	}
	defer rows.Close()

	var defs []model.FieldDef
	for rows.Next() {
		d, err := scanFieldDef(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field def: %w", err)
		}
		defs = append(defs, *d)
	}
	return defs, rows.Err()
}

func (s *FieldDefStore) CountActive(orgID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM field_defs WHERE organization_id = ? AND archived = 0`,
		orgID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count field defs: %w", err)
	}
	return n, nil
}

func (s *FieldDefStore) Archive(orgID int64, key string) error {
	_, err := s.db.Exec(
		`UPDATE field_defs SET archived = 1, updated_at = CURRENT_TIMESTAMP WHERE organization_id = ? AND key = ?`,
		orgID, key,
	)
	if err != nil {
		return fmt.Errorf("archive field def: %w", err)
	}
	return nil
}

// SetOrder reassigns order_index for the given keys in a single transaction:
// position in the slice becomes the index.
func (s *FieldDefStore) SetOrder(orgID int64, keys []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, key := range keys {
		if _, err := tx.Exec(
			`UPDATE field_defs SET order_index = ?, updated_at = CURRENT_TIMESTAMP WHERE organization_id = ? AND key = ?`,
			i, orgID, key,
		); err != nil {
			return fmt.Errorf("set order for %q: %w", key, err)
		}
	}
	return tx.Commit()
}
