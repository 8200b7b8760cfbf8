package store

import (
	"database/sql"
	"fmt"

	"github.com/steeplehq/steeple/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteCols = `id, organization_id, person_id, body, visibility, created_at`

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	err := scanner.Scan(&n.ID, &n.OrganizationID, &n.PersonID, &n.Body, &n.Visibility, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NoteStore) Create(orgID, personID int64, body string, visibility model.Visibility) (*model.Note, error) {
	result, err := s.db.Exec(
		`INSERT INTO notes (organization_id, person_id, body, visibility) VALUES (?, ?, ?, ?)`,
		orgID, personID, body, visibility,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id)
	return scanNote(row)
}

// ListForPerson returns the person's notes newest first.
func (s *NoteStore) ListForPerson(orgID, personID int64) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes WHERE organization_id = ? AND person_id = ? ORDER BY created_at DESC, id DESC`,
		orgID, personID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (s *NoteStore) DeleteForPersonTx(tx *sql.Tx, personID int64) error {
	if _, err := tx.Exec(`DELETE FROM notes WHERE person_id = ?`, personID); err != nil {
		return fmt.Errorf("delete notes for person: %w", err)
	}
	return nil
}
