package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

const (
	filePerm = 0o600
	dirPerm  = 0o700
)

// FileStore is a MemoryStore persisted as a JSON array at path.
// Every Add rewrites the file atomically.
type FileStore struct {
	*MemoryStore
	path string

	// writeMu spans the in-memory add and the file replace, so the file
	// always ends up holding the newest snapshot.
	writeMu sync.Mutex
}

// OpenFileStore loads the records at path; a missing file is an empty history.
func OpenFileStore(path string, max int) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("history: file path is empty")
	}
	s := &FileStore{MemoryStore: NewMemoryStore(max), path: path}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if len(records) > s.max {
		records = records[:s.max]
	}
	s.records = records
	return s, nil
}

// Empty reports whether nothing has been recorded yet.
func (s *FileStore) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records) == 0
}

func (s *FileStore) Add(ctx context.Context, r Record) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.MemoryStore.Add(ctx, r); err != nil {
		return err
	}
	s.mu.RLock()
	b, err := json.MarshalIndent(s.records, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "encode history")
	}
	return atomicWriteFile(s.path, b)
}

func atomicWriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return errors.Wrap(err, "write tmp")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename")
	}
	return nil
}
