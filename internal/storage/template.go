package storage

import (
	"database/sql"
	"fmt"
	"time"

	"stencil/internal/domain"
)

// TemplateStore implements domain.TemplateStore using SQLite.
type TemplateStore struct {
	db *DB
}

func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) CreateTemplate(t *domain.Template) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := s.db.conn.Exec(
		`INSERT INTO templates (id, org_id, name, type, schema_json, paper_size, orientation,
		 recipient_email_field, recipient_name_field, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrgID, t.Name, t.Type, t.SchemaJSON, t.PaperSize, t.Orientation,
		t.RecipientEmailField, t.RecipientNameField, t.Published, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *TemplateStore) GetTemplate(id string) (*domain.Template, error) {
	t := &domain.Template{}
	err := s.db.conn.QueryRow(
		`SELECT id, org_id, name, type, schema_json, paper_size, orientation,
		 recipient_email_field, recipient_name_field, published, created_at, updated_at
		 FROM templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.OrgID, &t.Name, &t.Type, &t.SchemaJSON, &t.PaperSize, &t.Orientation,
		&t.RecipientEmailField, &t.RecipientNameField, &t.Published, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("template not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TemplateStore) ListTemplates(orgID string) ([]domain.Template, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, org_id, name, type, schema_json, paper_size, orientation,
		 recipient_email_field, recipient_name_field, published, created_at, updated_at
		 FROM templates WHERE org_id = ? ORDER BY updated_at DESC`, orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.Template
	for rows.Next() {
		var t domain.Template
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.Type, &t.SchemaJSON, &t.PaperSize,
			&t.Orientation, &t.RecipientEmailField, &t.RecipientNameField, &t.Published,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) UpdateTemplate(t *domain.Template) error {
	t.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE templates SET name = ?, type = ?, schema_json = ?, paper_size = ?,
		 orientation = ?, recipient_email_field = ?, recipient_name_field = ?,
		 published = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Type, t.SchemaJSON, t.PaperSize, t.Orientation,
		t.RecipientEmailField, t.RecipientNameField, t.Published, t.UpdatedAt, t.ID,
	)
	return err
}

func (s *TemplateStore) DeleteTemplate(id string) error {
	// The draft goes with the template.
	if _, err := s.db.conn.Exec(`DELETE FROM drafts WHERE template_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.conn.Exec(`DELETE FROM templates WHERE id = ?`, id)
	return err
}
