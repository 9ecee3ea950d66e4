package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/model"
)

// StorageName is the fixed name of the persisted auth blob.
const StorageName = "auth-storage"

// Snapshot is the persisted part of State. IsLoading is never stored.
type Snapshot struct {
	User            *model.Profile `json:"user"`
	Token           string         `json:"token"`
	IsAuthenticated bool           `json:"isAuthenticated"`
}

// Persister saves and restores the session blob. Load returns (nil, nil)
// when nothing has been saved yet.
type Persister interface {
	Load() (*Snapshot, error)
	Save(Snapshot) error
}

// Encode serialises a snapshot.
func Encode(s Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}

// Decode parses a snapshot. A blob claiming authentication without a token
// is downgraded to unauthenticated.
func Decode(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", StorageName, err)
	}
	s.Token = api.StripBearer(s.Token)
	if s.Token == "" {
		s.IsAuthenticated = false
	}
	return &s, nil
}

// FileStore keeps the blob in <dir>/auth-storage.json, owner-only.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

func (f *FileStore) Path() string {
	return filepath.Join(f.dir, StorageName+".json")
}

func (f *FileStore) Load() (*Snapshot, error) {
	b, err := os.ReadFile(f.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not logged in
		}
		return nil, fmt.Errorf("read %s: %w", StorageName, err)
	}
	return Decode(b)
}

func (f *FileStore) Save(s Snapshot) error {
	b, err := Encode(s)
	if err != nil {
		return err
	}
	// ensure the data dir exists with 0700
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := f.Path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp, f.Path()); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Persister.
type MemoryStore struct {
	mu    sync.Mutex
	snap  *Snapshot
	saves int
}

func (m *MemoryStore) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	cp := *m.snap
	return &cp, nil
}

func (m *MemoryStore) Save(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &s
	m.saves++
	return nil
}

// Saves counts Save calls.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
