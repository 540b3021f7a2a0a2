package persona

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Source serves loaded persona definitions. Lookups are case-insensitive
// on the persona id.
type Source interface {
	Get(id string) (Persona, bool)
	All() []Persona
	Reload() error
}

// DirStore loads every *.yaml file in a directory. When the directory has
// no definitions at all, the built-in seed personas are written out first
// so a fresh install starts with working templates.
type DirStore struct {
	dir    string
	logger *slog.Logger

	mu       sync.RWMutex
	personas map[string]Persona
}

type DirStoreOption func(*DirStore)

func WithLogger(logger *slog.Logger) DirStoreOption {
	return func(s *DirStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewDirStore creates the store and performs the initial load, seeding the
// directory if needed.
func NewDirStore(dir string, opts ...DirStoreOption) (*DirStore, error) {
	s := &DirStore{
		dir:      dir,
		logger:   slog.Default(),
		personas: make(map[string]Persona),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DirStore) Get(id string) (Persona, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personas[strings.ToLower(id)]
	return p, ok
}

func (s *DirStore) All() []Persona {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Persona, 0, len(s.personas))
	for _, p := range s.personas {
		out = append(out, p)
	}
	return out
}

// Reload re-reads the directory from scratch. A file that fails to parse
// is logged and skipped; it does not abort the load.
func (s *DirStore) Reload() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create personas dir: %w", err)
	}
	if err := s.writeSeeds(); err != nil {
		return err
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("scan personas dir: %w", err)
	}

	loaded := make(map[string]Persona)
	for _, path := range matches {
		p, err := loadFile(path)
		if err != nil {
			s.logger.Error("persona_load_failed", "file", path, "error", err)
			continue
		}
		if p.ID == "" {
			s.logger.Error("persona_missing_id", "file", path)
			continue
		}
		loaded[strings.ToLower(p.ID)] = p
		s.logger.Debug("persona_loaded", "id", p.ID, "name", p.Name)
	}

	s.mu.Lock()
	s.personas = loaded
	s.mu.Unlock()

	s.logger.Info("personas_loaded", "count", len(loaded), "dir", s.dir)
	return nil
}

func loadFile(path string) (Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, err
	}
	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Persona{}, fmt.Errorf("parse yaml: %w", err)
	}
	return p, nil
}

// writeSeeds materializes the built-in personas for any seed id that has
// no file yet. Existing files are never overwritten.
func (s *DirStore) writeSeeds() error {
	for _, seed := range seedPersonas() {
		path := filepath.Join(s.dir, seed.ID+".yaml")
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat seed %s: %w", path, err)
		}

		raw, err := yaml.Marshal(seed)
		if err != nil {
			return fmt.Errorf("encode seed %s: %w", seed.ID, err)
		}
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			return fmt.Errorf("write seed %s: %w", path, err)
		}
		s.logger.Info("persona_seed_created", "id", seed.ID, "file", path)
	}
	return nil
}
