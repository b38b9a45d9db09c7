package domain

import "time"

// RecipientList is a stored table of recipient records owned by an
// organization, usable as a send-job source without any external connection.
// FieldsJSON holds the ordered field definitions.
type RecipientList struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"orgId"`
	Name       string    `json:"name"`
	FieldsJSON string    `json:"fieldsJson"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RecipientRow is a single recipient record. DataJSON stores field values as
// { "field": value }; nested objects are allowed and addressed by dot paths.
type RecipientRow struct {
	ID        string    `json:"id"`
	ListID    string    `json:"listId"`
	DataJSON  string    `json:"dataJson"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecipientListStore manages CRUD for recipient lists and their rows.
type RecipientListStore interface {
	CreateList(l *RecipientList) error
	GetList(id string) (*RecipientList, error)
	ListLists(orgID string) ([]RecipientList, error)
	UpdateList(l *RecipientList) error
	DeleteList(id string) error

	CreateRow(r *RecipientRow) error
	ListRows(listID string) ([]RecipientRow, error)
	UpdateRow(r *RecipientRow) error
	DeleteRow(id string) error
	DeleteRowsByList(listID string) error
}
