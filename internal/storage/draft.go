package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stencil/internal/domain"
)

// DraftStore implements domain.DraftStore using SQLite. One draft row per
// template, overwritten on every autosave flush.
type DraftStore struct {
	db *DB
}

func NewDraftStore(db *DB) *DraftStore {
	return &DraftStore{db: db}
}

func (s *DraftStore) SaveDraft(d *domain.Draft) error {
	d.SavedAt = time.Now()
	_, err := s.db.conn.Exec(
		`INSERT INTO drafts (template_id, name, schema_json, saved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(template_id) DO UPDATE SET name = excluded.name,
		 schema_json = excluded.schema_json, saved_at = excluded.saved_at`,
		d.TemplateID, d.Name, d.SchemaJSON, d.SavedAt,
	)
	return err
}

func (s *DraftStore) GetDraft(templateID string) (*domain.Draft, error) {
	d := &domain.Draft{}
	err := s.db.conn.QueryRow(
		`SELECT template_id, name, schema_json, saved_at FROM drafts WHERE template_id = ?`,
		templateID,
	).Scan(&d.TemplateID, &d.Name, &d.SchemaJSON, &d.SavedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("draft not found: %s", templateID)
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

func (s *DraftStore) DeleteDraft(templateID string) error {
	_, err := s.db.conn.Exec(`DELETE FROM drafts WHERE template_id = ?`, templateID)
	return err
}
