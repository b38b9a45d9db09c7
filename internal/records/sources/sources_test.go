package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stencil/internal/records"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestCSVSourceReadsTypedValues(t *testing.T) {
	path := writeTempFile(t, "payroll.csv",
		"employee.name,employee.email,pay.net\nAda,ada@example.com,2500.50\nGrace,grace@example.com,3100\n")

	src, err := records.GetSource("csv_file")
	if err != nil {
		t.Fatalf("get source: %v", err)
	}

	recs, err := records.ReadAll(context.Background(), "csv_file",
		records.SourceConfig{"filePath": path}, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}

	name, ok := recs[0].Lookup("employee.name")
	if !ok || name != "Ada" {
		t.Fatalf("dot-path header should resolve directly, got %v", name)
	}
	net, _ := recs[0].Lookup("pay.net")
	if net != 2500.50 {
		t.Fatalf("numeric values should be inferred, got %v", net)
	}

	schema, err := src.Discover(context.Background(), records.SourceConfig{"filePath": path})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if got := schema.FieldNames(); len(got) != 3 || got[0] != "employee.name" {
		t.Fatalf("schema fields: %v", got)
	}
}

func TestCSVSourceWithoutHeader(t *testing.T) {
	path := writeTempFile(t, "raw.csv", "Ada,100\nGrace,200\n")

	recs, err := records.ReadAll(context.Background(), "csv_file",
		records.SourceConfig{"filePath": path, "hasHeader": "false"}, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v, _ := recs[0].Lookup("col_1"); v != "Ada" {
		t.Fatalf("generated column names expected, got %v", v)
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := records.ReadAll(context.Background(), "csv_file",
		records.SourceConfig{"filePath": "/nonexistent/nope.csv"}, 0)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestJSONSourcePreservesNesting(t *testing.T) {
	path := writeTempFile(t, "employees.json",
		`{"data":{"items":[{"employee":{"name":"Ada","email":"ada@example.com"}}]}}`)

	recs, err := records.ReadAll(context.Background(), "json_file",
		records.SourceConfig{"filePath": path, "dataPath": "data.items"}, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if v, _ := recs[0].Lookup("employee.email"); v != "ada@example.com" {
		t.Fatalf("nested lookup failed, got %v", v)
	}
}

func TestJSONSourceBadDataPath(t *testing.T) {
	path := writeTempFile(t, "x.json", `{"rows":[]}`)

	_, err := records.ReadAll(context.Background(), "json_file",
		records.SourceConfig{"filePath": path, "dataPath": "missing.path"}, 0)
	if err == nil {
		t.Fatal("expected an error for an unresolvable data path")
	}
}

func TestHTTPSourceFetchesAndNavigates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"result":{"employees":[{"name":"Ada"},{"name":"Grace"}]}}`))
	}))
	defer srv.Close()

	recs, err := records.ReadAll(context.Background(), "http", records.SourceConfig{
		"url":      srv.URL,
		"headers":  `{"Authorization":"Bearer tok"}`,
		"dataPath": "result.employees",
	}, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
}

func TestHTTPSourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := records.ReadAll(context.Background(), "http",
		records.SourceConfig{"url": srv.URL}, 0)
	if err == nil {
		t.Fatal("expected an error for a 4xx response")
	}
}

func TestSourceSpecsRegistered(t *testing.T) {
	want := map[string]bool{
		"csv_file": false, "json_file": false, "http": false,
		"database": false, "mongo": false, "recipient_list": false,
	}
	for _, spec := range records.ListSources() {
		if _, ok := want[spec.Type]; ok {
			want[spec.Type] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Fatalf("source %q not registered", typ)
		}
	}
}
