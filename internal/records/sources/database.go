package sources

import (
	"context"
	"fmt"

	"stencil/internal/records"
)

// ── Database Source ────────────────────────────────────────
// Pulls recipient rows from a stored customer database connection via a
// read-only SQL query. The dbclient.Connector plumbing is injected
// through a provider interface to avoid a circular import.

// ConnectionProvider resolves a stored connection id and runs a read
// request against it. The service layer implements this on top of the
// connection store and dbclient.
type ConnectionProvider interface {
	FetchRows(ctx context.Context, connectionID, request string, maxRows int) ([]map[string]any, error)
}

var connectionProvider ConnectionProvider

// SetConnectionProvider is called by the app at startup.
func SetConnectionProvider(p ConnectionProvider) { connectionProvider = p }

type databaseSource struct{}

func init() { records.RegisterSource(&databaseSource{}) }

func (s *databaseSource) Spec() records.SourceSpec {
	return records.SourceSpec{
		Type:  "database",
		Label: "Database Query",
		ConfigFields: []records.ConfigField{
			{Key: "connectionId", Label: "Connection", Type: "string", Required: true, Help: "Stored database connection id"},
			{Key: "query", Label: "Query", Type: "textarea", Required: true, Help: "Read-only SELECT returning one row per recipient"},
		},
	}
}

func resolveDBConfig(cfg records.SourceConfig) (string, string, error) {
	connID, _ := cfg["connectionId"].(string)
	query, _ := cfg["query"].(string)
	if connID == "" || query == "" {
		return "", "", fmt.Errorf("connectionId and query are required")
	}
	return connID, query, nil
}

func (s *databaseSource) Discover(ctx context.Context, cfg records.SourceConfig) (*records.Schema, error) {
	connID, query, err := resolveDBConfig(cfg)
	if err != nil {
		return nil, err
	}
	if connectionProvider == nil {
		return nil, fmt.Errorf("connection provider not initialized")
	}

	rows, err := connectionProvider.FetchRows(ctx, connID, query, 10)
	if err != nil {
		return nil, err
	}
	return records.InferSchema(rowsToRecords(rows)), nil
}

func (s *databaseSource) Read(ctx context.Context, cfg records.SourceConfig) (<-chan records.Record, <-chan error) {
	out := make(chan records.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		connID, query, err := resolveDBConfig(cfg)
		if err != nil {
			errCh <- err
			return
		}
		if connectionProvider == nil {
			errCh <- fmt.Errorf("connection provider not initialized")
			return
		}

		rows, err := connectionProvider.FetchRows(ctx, connID, query, 0)
		if err != nil {
			errCh <- fmt.Errorf("fetch rows: %w", err)
			return
		}

		for _, row := range rows {
			select {
			case out <- records.Record{Data: row}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

func rowsToRecords(rows []map[string]any) []records.Record {
	recs := make([]records.Record, len(rows))
	for i, row := range rows {
		recs[i] = records.Record{Data: row}
	}
	return recs
}
