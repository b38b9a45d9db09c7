package domain

import "time"

// Template is a persisted document template owned by an organization.
// SchemaJSON holds the serialized TemplateSchema.
type Template struct {
	ID                  string       `json:"id"`
	OrgID               string       `json:"orgId"`
	Name                string       `json:"name"`
	Type                TemplateType `json:"type"`
	SchemaJSON          string       `json:"schemaJson"`
	PaperSize           string       `json:"paperSize"`
	Orientation         Orientation  `json:"orientation"`
	RecipientEmailField string       `json:"recipientEmailField"`
	RecipientNameField  string       `json:"recipientNameField"`
	Published           bool         `json:"published"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// Draft is the autosaved working copy of a template. One draft per template;
// overwritten on every autosave flush.
type Draft struct {
	TemplateID string    `json:"templateId"`
	Name       string    `json:"name"`
	SchemaJSON string    `json:"schemaJson"`
	SavedAt    time.Time `json:"savedAt"`
}

type TemplateStore interface {
	CreateTemplate(t *Template) error
	GetTemplate(id string) (*Template, error)
	ListTemplates(orgID string) ([]Template, error)
	UpdateTemplate(t *Template) error
	DeleteTemplate(id string) error
}

type DraftStore interface {
	SaveDraft(d *Draft) error
	GetDraft(templateID string) (*Draft, error)
	DeleteDraft(templateID string) error
}
