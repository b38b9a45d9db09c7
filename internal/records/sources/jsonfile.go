package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"stencil/internal/records"
)

// ── JSON File Source ────────────────────────────────────────
// Reads recipient records from a local JSON file. Nested objects are
// preserved so dot-path variables resolve into them.

type jsonFileSource struct{}

func init() { records.RegisterSource(&jsonFileSource{}) }

func (s *jsonFileSource) Spec() records.SourceSpec {
	return records.SourceSpec{
		Type:  "json_file",
		Label: "JSON File",
		ConfigFields: []records.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Absolute path to the JSON file"},
			{Key: "dataPath", Label: "Data Path", Type: "string", Required: false, Help: "Dot-separated path to the array (e.g., 'data.items'). Leave empty if root is an array."},
		},
	}
}

func (s *jsonFileSource) Discover(ctx context.Context, cfg records.SourceConfig) (*records.Schema, error) {
	recs, err := readJSONFile(cfg)
	if err != nil {
		return nil, err
	}
	return records.InferSchema(recs), nil
}

func (s *jsonFileSource) Read(ctx context.Context, cfg records.SourceConfig) (<-chan records.Record, <-chan error) {
	out := make(chan records.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		recs, err := readJSONFile(cfg)
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

func readJSONFile(cfg records.SourceConfig) ([]records.Record, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if dataPath, ok := cfg["dataPath"].(string); ok && dataPath != "" {
		raw = records.NavigatePath(raw, dataPath)
		if raw == nil {
			return nil, fmt.Errorf("data path %q not found", dataPath)
		}
	}

	return records.ToRecords(raw), nil
}
