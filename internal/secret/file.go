package secret

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements SecretStore as a single JSON file with 0600
// permissions. Suitable for single-node deployments; values are held
// base64-encoded by encoding/json.
type FileStore struct {
	path string

	mu      sync.Mutex
	secrets map[string][]byte
}

// NewFileStore opens (or creates) the secret file at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, secrets: make(map[string][]byte)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secret store: %w", err)
	}
	if err := json.Unmarshal(data, &s.secrets); err != nil {
		return nil, fmt.Errorf("parse secret store: %w", err)
	}
	return s, nil
}

func (s *FileStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = value
	return s.persist()
}

func (s *FileStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secrets[key], nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, key)
	return s.persist()
}

// persist writes the store atomically: temp file then rename.
func (s *FileStore) persist() error {
	data, err := json.Marshal(s.secrets)
	if err != nil {
		return fmt.Errorf("marshal secret store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
