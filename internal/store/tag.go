package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/steeplehq/steeple/internal/model"
)

type TagStore struct {
	db *sql.DB
}

func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

const tagCols = `id, organization_id, name, color, archived, created_at, updated_at`

func scanTag(scanner interface{ Scan(...any) error }) (*model.Tag, error) {
	var t model.Tag
	err := scanner.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Color, &t.Archived, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TagStore) Create(orgID int64, name, color string) (*model.Tag, error) {
	result, err := s.db.Exec(
		`INSERT INTO tags (organization_id, name, color) VALUES (?, ?, ?)`,
		orgID, name, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(orgID, id)
}

// GetByID returns the tag regardless of archived state, or nil if the id does
// not resolve within the organization.
func (s *TagStore) GetByID(orgID, id int64) (*model.Tag, error) {
	row := s.db.QueryRow(
		`SELECT `+tagCols+` FROM tags WHERE organization_id = ? AND id = ?`,
		orgID, id,
	)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

func (s *TagStore) List(orgID int64, includeArchived bool) ([]model.Tag, error) {
	query := `SELECT ` + tagCols + ` FROM tags WHERE organization_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.Query(query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

func (s *TagStore) Update(orgID, id int64, name, color string) (*model.Tag, error) {
	_, err := s.db.Exec(
		`UPDATE tags SET name = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE organization_id = ? AND id = ?`,
		name, color, orgID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return s.GetByID(orgID, id)
}

// MissingActive returns the subset of ids that do not resolve to a live
// (non-archived) tag in the organization.
func (s *TagStore) MissingActive(orgID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, orgID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.Query(
		`SELECT id FROM tags WHERE organization_id = ? AND archived = 0 AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("check tags: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tag id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *TagStore) ArchiveTx(tx *sql.Tx, orgID, id int64) error {
	_, err := tx.Exec(
		`UPDATE tags SET archived = 1, updated_at = CURRENT_TIMESTAMP WHERE organization_id = ? AND id = ?`,
		orgID, id,
	)
	if err != nil {
		return fmt.Errorf("archive tag: %w", err)
	}
	return nil
}
