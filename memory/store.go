package memory

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Origin-of-Miracles/Anima/internal/fsstore"
)

// Store persists the short-term tier across restarts. Implementations must
// be safe for concurrent use by multiple personas.
type Store interface {
	// Load returns the persisted day buckets for a persona. A persona with
	// no saved state yields an empty map and no error.
	Load(ctx context.Context, personaID string) (map[string][]Entry, error)
	// Save replaces the persisted state for a persona.
	Save(ctx context.Context, personaID string, days map[string][]Entry) error
}

// FileStore persists each persona's memory as a JSON file under a base
// directory. Writes are atomic.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := fsstore.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(personaID string) string {
	return filepath.Join(fs.dir, personaID+"_memory.json")
}

func (fs *FileStore) Load(_ context.Context, personaID string) (map[string][]Entry, error) {
	var days map[string][]Entry
	found, err := fsstore.ReadJSON(fs.path(personaID), &days)
	if err != nil {
		return nil, fmt.Errorf("load memory for %s: %w", personaID, err)
	}
	if !found || days == nil {
		return map[string][]Entry{}, nil
	}
	return days, nil
}

func (fs *FileStore) Save(_ context.Context, personaID string, days map[string][]Entry) error {
	if err := fsstore.WriteJSONAtomic(fs.path(personaID), days); err != nil {
		return fmt.Errorf("save memory for %s: %w", personaID, err)
	}
	return nil
}
