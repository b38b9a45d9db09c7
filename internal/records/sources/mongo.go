package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"stencil/internal/records"
)

// ── MongoDB Source ─────────────────────────────────────────
// Pulls recipient documents from a MongoDB collection through a stored
// connection. Shares the ConnectionProvider with the SQL source; the
// request is the JSON query document the mongo connector understands.

type mongoSource struct{}

func init() { records.RegisterSource(&mongoSource{}) }

func (s *mongoSource) Spec() records.SourceSpec {
	return records.SourceSpec{
		Type:  "mongo",
		Label: "MongoDB Collection",
		ConfigFields: []records.ConfigField{
			{Key: "connectionId", Label: "Connection", Type: "string", Required: true, Help: "Stored database connection id (mongodb driver)"},
			{Key: "collection", Label: "Collection", Type: "string", Required: true, Help: "Collection holding one document per recipient"},
			{Key: "filter", Label: "Filter", Type: "textarea", Required: false, Help: "JSON filter document (MongoDB Extended JSON supported)"},
			{Key: "sort", Label: "Sort", Type: "textarea", Required: false, Help: "JSON sort document"},
		},
	}
}

func buildMongoRequest(cfg records.SourceConfig) (string, string, error) {
	connID, _ := cfg["connectionId"].(string)
	collection, _ := cfg["collection"].(string)
	if connID == "" || collection == "" {
		return "", "", fmt.Errorf("connectionId and collection are required")
	}

	request := map[string]any{"collection": collection}
	for _, key := range []string{"filter", "sort"} {
		raw, _ := cfg[key].(string)
		if raw == "" {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return "", "", fmt.Errorf("parse %s: %w", key, err)
		}
		request[key] = doc
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", "", fmt.Errorf("encode request: %w", err)
	}
	return connID, string(payload), nil
}

func (s *mongoSource) Discover(ctx context.Context, cfg records.SourceConfig) (*records.Schema, error) {
	connID, request, err := buildMongoRequest(cfg)
	if err != nil {
		return nil, err
	}
	if connectionProvider == nil {
		return nil, fmt.Errorf("connection provider not initialized")
	}

	docs, err := connectionProvider.FetchRows(ctx, connID, request, 10)
	if err != nil {
		return nil, err
	}
	return records.InferSchema(rowsToRecords(docs)), nil
}

func (s *mongoSource) Read(ctx context.Context, cfg records.SourceConfig) (<-chan records.Record, <-chan error) {
	out := make(chan records.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		connID, request, err := buildMongoRequest(cfg)
		if err != nil {
			errCh <- err
			return
		}
		if connectionProvider == nil {
			errCh <- fmt.Errorf("connection provider not initialized")
			return
		}

		docs, err := connectionProvider.FetchRows(ctx, connID, request, 0)
		if err != nil {
			errCh <- fmt.Errorf("fetch documents: %w", err)
			return
		}

		for _, doc := range docs {
			select {
			case out <- records.Record{Data: doc}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}
