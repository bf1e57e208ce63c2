// Package kvstore provides the JSON-file-backed map store shared by the
// balance ledger, character links, shops, vaults and the pending-earnings
// queue. Every store is a single file holding one indented JSON object,
// guarded by a per-store mutex and written via temp-file-plus-rename so the
// on-disk state is always either the previous or the new version.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is a durable map[string]V. A single process-wide lock per store
// serializes every load-modify-save cycle; a second process writing the same
// file concurrently is not supported.
type Store[V any] struct {
	path string
	mu   sync.Mutex
	log  *slog.Logger
}

func New[V any](path string, logger *slog.Logger) *Store[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[V]{path: path, log: logger}
}

func (s *Store[V]) Path() string { return s.path }

// View runs fn with a snapshot of the current contents under the store lock.
func (s *Store[V]) View(fn func(data map[string]V)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.load())
}

// Update runs fn with the current contents under the store lock. When fn
// reports true the mutated map is persisted; any fn error aborts without
// writing. The save error is returned to the caller rather than swallowed, so
// a failed write never masquerades as a successful mutation.
func (s *Store[V]) Update(fn func(data map[string]V) (save bool, err error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	save, err := fn(data)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}
	return s.save(data)
}

// load reads the backing file. A missing file is an empty store; malformed
// content is logged and treated as empty rather than crashing the bot.
func (s *Store[V]) load() map[string]V {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("store read failed", "path", s.path, "err", err)
		}
		return make(map[string]V)
	}
	if len(raw) == 0 {
		return make(map[string]V)
	}
	var data map[string]V
	if err := json.Unmarshal(raw, &data); err != nil {
		s.log.Warn("store file malformed, starting empty", "path", s.path, "err", err)
		return make(map[string]V)
	}
	if data == nil {
		data = make(map[string]V)
	}
	return data
}

// save writes to a sibling temp file then renames over the destination.
// On failure the temp file is removed best-effort and the previous file
// remains authoritative.
func (s *Store[V]) save(data map[string]V) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.path, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, ".tmp_"+filepath.Base(s.path))
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
