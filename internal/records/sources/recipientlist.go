package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"stencil/internal/domain"
	"stencil/internal/records"
)

// ── Recipient List Source ──────────────────────────────────
// Reads a stored recipient list: the zero-setup path where recipient
// data lives in the app's own database instead of an external system.

type recipientListSource struct{}

func init() { records.RegisterSource(&recipientListSource{}) }

var recipientListStore domain.RecipientListStore

// SetRecipientListStore is called by the app at startup.
func SetRecipientListStore(store domain.RecipientListStore) { recipientListStore = store }

func (s *recipientListSource) Spec() records.SourceSpec {
	return records.SourceSpec{
		Type:  "recipient_list",
		Label: "Recipient List",
		ConfigFields: []records.ConfigField{
			{Key: "listId", Label: "Recipient List", Type: "string", Required: true, Help: "Stored recipient list id"},
		},
	}
}

func (s *recipientListSource) Discover(ctx context.Context, cfg records.SourceConfig) (*records.Schema, error) {
	recs, err := readList(cfg)
	if err != nil {
		return nil, err
	}
	return records.InferSchema(recs), nil
}

func (s *recipientListSource) Read(ctx context.Context, cfg records.SourceConfig) (<-chan records.Record, <-chan error) {
	out := make(chan records.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		recs, err := readList(cfg)
		if err != nil {
			errCh <- err
			return
		}
		for _, rec := range recs {
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

func readList(cfg records.SourceConfig) ([]records.Record, error) {
	listID, _ := cfg["listId"].(string)
	if listID == "" {
		return nil, fmt.Errorf("listId is required")
	}
	if recipientListStore == nil {
		return nil, fmt.Errorf("recipient list store not initialized")
	}

	rows, err := recipientListStore.ListRows(listID)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}

	recs := make([]records.Record, 0, len(rows))
	for _, row := range rows {
		var data map[string]any
		if err := json.Unmarshal([]byte(row.DataJSON), &data); err != nil {
			return nil, fmt.Errorf("row %s: parse data: %w", row.ID, err)
		}
		recs = append(recs, records.Record{Data: data})
	}
	return recs, nil
}
