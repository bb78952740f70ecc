/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package cache persists grammar check outcomes keyed by bundle content so
// unchanged bundles are not re-parsed on the next run.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"github.com/vmihailenco/msgpack/v5"
)

// formatVersion is bumped whenever Entry changes shape or meaning
// (2: columns are UTF-16 code units).
const formatVersion = 2

// Entry is a cached grammar check outcome.
type Entry struct {
	Clean   bool   `msgpack:"c"`
	Line    int    `msgpack:"l,omitempty"`
	Column  int    `msgpack:"col,omitempty"`
	Message string `msgpack:"m,omitempty"`
}

type document struct {
	Version int              `msgpack:"v"`
	Entries map[string]Entry `msgpack:"e"`
}

// Store is a concurrent-safe check cache backed by a msgpack file.
type Store struct {
	path    string
	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool
}

// Key derives the cache key for bundle content checked under a grammar signature.
func Key(signature string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(signature))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Load reads the cache at path. A missing file yields an empty store; an
// unreadable or corrupt file is logged and also yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]Entry)}
	data, err := os.ReadFile(path) // #nosec G304 -- cache path comes from trusted config
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		logger.Warn("Ignoring unreadable check cache", logger.String("path", path), logger.Err(err))
		return s, nil
	}

	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil || doc.Version != formatVersion {
		logger.Warn("Discarding stale or corrupt check cache", logger.String("path", path))
		return s, nil
	}
	if doc.Entries != nil {
		s.entries = doc.Entries
	}
	logger.Debug("Loaded check cache", logger.String("path", path), logger.Int("entries", len(s.entries)))
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns the cached entry for key.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// Put records an entry for key.
func (s *Store) Put(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[key]; ok && old == e {
		return
	}
	s.entries[key] = e
	s.dirty = true
}

// Save writes the store atomically if it changed since loading.
func (s *Store) Save() error {
	s.mu.RLock()
	if !s.dirty {
		s.mu.RUnlock()
		return nil
	}
	data, err := msgpack.Marshal(document{Version: formatVersion, Entries: s.entries})
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode check cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bundlecheck-cache-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write check cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close check cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace check cache: %w", err)
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	return nil
}
