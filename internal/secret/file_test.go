package secret

import (
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.Set("dbpass:conn-1", []byte("hunter2")); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh store must read back what the first one persisted.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, err := reopened.Get("dbpass:conn-1")
	if err != nil || string(v) != "hunter2" {
		t.Fatalf("get: %q %v", v, err)
	}

	if err := reopened.Delete("dbpass:conn-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	v, err = reopened.Get("dbpass:conn-1")
	if err != nil || v != nil {
		t.Fatalf("deleted key should be absent, got %q %v", v, err)
	}
}

func TestFileStoreMissingKeyIsNil(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	v, err := s.Get("nope")
	if err != nil || v != nil {
		t.Fatalf("missing key: %q %v", v, err)
	}
}
