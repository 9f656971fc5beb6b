// Package storage persists controller settings, one YAML document per
// namespace.
package storage

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/jmylchreest/reeflightd/internal/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrStorageUnavailable is returned when the backing store cannot be
	// read or written.
	ErrStorageUnavailable = fmt.Errorf("settings storage: %w", errors.ErrUnavailable)

	// ErrNotFound is returned by Load when nothing was saved under a
	// namespace yet.
	ErrNotFound = fmt.Errorf("settings namespace: %w", errors.ErrNotFound)
)

var namespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Store loads and saves settings by namespace.
//
// Load decodes onto dst, so fields absent from the stored document keep
// the values dst already holds. Callers fill dst with defaults first.
type Store interface {
	Load(namespace string, dst any) error
	Save(namespace string, v any) error
}

func validNamespace(ns string) error {
	if !namespacePattern.MatchString(ns) {
		return errors.InvalidInputf("invalid storage namespace %q", ns)
	}
	return nil
}

// FileStore keeps each namespace in <dir>/<namespace>.yaml.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStorageUnavailable, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(ns string) string {
	return filepath.Join(s.dir, ns+".yaml")
}

// Load reads a namespace onto dst.
func (s *FileStore) Load(ns string, dst any) error {
	if err := validNamespace(ns); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(ns))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, ns)
		}
		return fmt.Errorf("%w: read %s: %v", ErrStorageUnavailable, ns, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return errors.InvalidInputf("decode %s: %v", ns, err)
	}
	return nil
}

// Save writes a namespace atomically: the document goes to a temporary
// file in the same directory which is then renamed over the old one.
func (s *FileStore) Save(ns string, v any) error {
	if err := validNamespace(ns); err != nil {
		return err
	}
	raw, err := yaml.Marshal(v)
	if err != nil {
		return errors.InvalidInputf("encode %s: %v", ns, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+ns+"-*.yaml")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrStorageUnavailable, ns, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", ErrStorageUnavailable, ns, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrStorageUnavailable, ns, err)
	}
	if err := os.Rename(tmpName, s.path(ns)); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrStorageUnavailable, ns, err)
	}
	return nil
}

// MemoryStore keeps encoded namespaces in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// SetError makes every following operation fail with err until cleared
// with nil.
func (s *MemoryStore) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Load decodes a namespace onto dst.
func (s *MemoryStore) Load(ns string, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	raw, ok := s.data[ns]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ns)
	}
	return yaml.Unmarshal(raw, dst)
}

// Save encodes v under a namespace.
func (s *MemoryStore) Save(ns string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return errors.InvalidInputf("encode %s: %v", ns, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[ns] = raw
	return nil
}

// Raw returns the encoded document of a namespace.
func (s *MemoryStore) Raw(ns string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[ns]
	return raw, ok
}

// Restore returns the settings stored under a namespace, decoded over
// defaults. Any failure to load yields defaults unchanged.
func Restore[T any](logger *slog.Logger, s Store, ns string, defaults T) T {
	v := defaults
	err := s.Load(ns, &v)
	switch {
	case err == nil:
		logger.Debug("Restored settings", "namespace", ns)
		return v
	case errors.Is(err, ErrNotFound):
		logger.Info("No stored settings, using defaults", "namespace", ns)
	default:
		logger.Warn("Failed to restore settings, using defaults", "namespace", ns, "error", err)
	}
	return defaults
}
