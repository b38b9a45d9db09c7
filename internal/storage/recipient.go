package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stencil/internal/domain"
)

// RecipientListStore implements domain.RecipientListStore using SQLite.
type RecipientListStore struct {
	db *DB
}

func NewRecipientListStore(db *DB) *RecipientListStore {
	return &RecipientListStore{db: db}
}

func (s *RecipientListStore) CreateList(l *domain.RecipientList) error {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	_, err := s.db.conn.Exec(
		`INSERT INTO recipient_lists (id, org_id, name, fields_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.OrgID, l.Name, l.FieldsJSON, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (s *RecipientListStore) GetList(id string) (*domain.RecipientList, error) {
	l := &domain.RecipientList{}
	err := s.db.conn.QueryRow(
		`SELECT id, org_id, name, fields_json, created_at, updated_at
		 FROM recipient_lists WHERE id = ?`, id,
	).Scan(&l.ID, &l.OrgID, &l.Name, &l.FieldsJSON, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipient list not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get recipient list: %w", err)
	}
	return l, nil
}

func (s *RecipientListStore) ListLists(orgID string) ([]domain.RecipientList, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, org_id, name, fields_json, created_at, updated_at
		 FROM recipient_lists WHERE org_id = ? ORDER BY created_at ASC`, orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []domain.RecipientList
	for rows.Next() {
		var l domain.RecipientList
		if err := rows.Scan(&l.ID, &l.OrgID, &l.Name, &l.FieldsJSON, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (s *RecipientListStore) UpdateList(l *domain.RecipientList) error {
	l.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE recipient_lists SET name = ?, fields_json = ?, updated_at = ? WHERE id = ?`,
		l.Name, l.FieldsJSON, l.UpdatedAt, l.ID,
	)
	return err
}

func (s *RecipientListStore) DeleteList(id string) error {
	if err := s.DeleteRowsByList(id); err != nil {
		return err
	}
	_, err := s.db.conn.Exec(`DELETE FROM recipient_lists WHERE id = ?`, id)
	return err
}

func (s *RecipientListStore) CreateRow(r *domain.RecipientRow) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err := s.db.conn.Exec(
		`INSERT INTO recipient_rows (id, list_id, data_json, sort_order, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ListID, r.DataJSON, r.SortOrder, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *RecipientListStore) ListRows(listID string) ([]domain.RecipientRow, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, list_id, data_json, sort_order, created_at, updated_at
		 FROM recipient_rows WHERE list_id = ? ORDER BY sort_order ASC`, listID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecipientRow
	for rows.Next() {
		var r domain.RecipientRow
		if err := rows.Scan(&r.ID, &r.ListID, &r.DataJSON, &r.SortOrder, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *RecipientListStore) UpdateRow(r *domain.RecipientRow) error {
	r.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE recipient_rows SET data_json = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		r.DataJSON, r.SortOrder, r.UpdatedAt, r.ID,
	)
	return err
}

func (s *RecipientListStore) DeleteRow(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM recipient_rows WHERE id = ?`, id)
	return err
}

func (s *RecipientListStore) DeleteRowsByList(listID string) error {
	_, err := s.db.conn.Exec(`DELETE FROM recipient_rows WHERE list_id = ?`, listID)
	return err
}
