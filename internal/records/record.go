package records

import (
	"sort"
	"strings"
)

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format. All sources emit Records; the render
// composer and batch sender consume them. One Record is one recipient.

// Field describes a single resolvable value in a record set. Name is a
// dot path for nested values ("employee.name").
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "number" | "boolean"
}

// Schema describes the shape of records coming from a source.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Record is a single recipient's data. Values may be nested maps (from
// JSON sources) or flat dot-path keys (from tabular sources); Lookup
// resolves both.
type Record struct {
	Data map[string]any `json:"data"`
}

// Lookup resolves a dot path against the record. A flat key containing
// dots wins over nested traversal, so CSV columns named "employee.name"
// behave the same as nested JSON.
func (r Record) Lookup(path string) (any, bool) {
	if v, ok := r.Data[path]; ok {
		return v, true
	}
	parts := strings.Split(path, ".")
	var current any = r.Data
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ── Schema inference ───────────────────────────────────────

// InferSchema derives a schema from a sample of records, flattening
// nested maps into dot-path field names so the result can seed the
// builder's variable catalog directly.
func InferSchema(recs []Record) *Schema {
	fieldSet := make(map[string]string)
	for _, rec := range recs {
		collectFields(fieldSet, "", rec.Data)
	}

	names := make([]string, 0, len(fieldSet))
	for name := range fieldSet {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := &Schema{Fields: make([]Field, 0, len(names))}
	for _, name := range names {
		schema.Fields = append(schema.Fields, Field{Name: name, Type: fieldSet[name]})
	}
	return schema
}

func collectFields(out map[string]string, prefix string, m map[string]any) {
	for k, v := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			collectFields(out, name, nested)
			continue
		}
		if _, exists := out[name]; !exists {
			out[name] = inferType(v)
		}
	}
}

func inferType(v any) string {
	switch v.(type) {
	case float64, float32, int, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "text"
	}
}

// ToRecords converts a decoded JSON value into a slice of Records.
// Nested structure is preserved for dot-path lookup.
func ToRecords(raw any) []Record {
	switch v := raw.(type) {
	case []any:
		recs := make([]Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				recs = append(recs, Record{Data: m})
			}
		}
		return recs
	case map[string]any:
		return []Record{{Data: v}}
	default:
		return nil
	}
}

// NavigatePath walks a dot-separated path into nested maps.
func NavigatePath(obj any, path string) any {
	current := obj
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}
