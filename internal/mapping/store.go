// Package mapping persists the business key -> generated identifier relation
// produced by the encryption pipeline.
//
// The store is the only writer of that relation and the source of truth for
// "already processed" status: a key present in the store is never encrypted
// again and never receives a new identifier.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/dmitrijs2005/imgseal/internal/common"
	"github.com/dmitrijs2005/imgseal/internal/filex"
)

// Record is one business key -> generated identifier pair.
type Record struct {
	OriginalKey string
	GeneratedID string
}

// Store is an in-memory mapping loaded from and saved to a JSON file.
// It is not safe for concurrent mutation; the pipeline only touches it from
// the orchestrating goroutine.
type Store struct {
	entries map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]string)}
}

// FromMap builds a store holding a copy of m.
func FromMap(m map[string]string) *Store {
	s := New()
	for k, v := range m {
		s.entries[k] = v
	}
	return s
}

// Load reads the mapping at path. A missing file yields an empty store;
// content that is not a JSON object of strings fails with ErrCorruptState.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", common.ErrCorruptState, path)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrCorruptState, path, err)
	}
	// "null" decodes without error into a nil map.
	if m == nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object", common.ErrCorruptState, path)
	}

	return &Store{entries: m}, nil
}

// Save writes the whole store to path as an indented JSON object, replacing
// prior content atomically.
func (s *Store) Save(path string) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

// MarshalJSON encodes the store with four-space indentation and sorted keys.
func (s *Store) MarshalJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.entries, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Contains reports whether key already has a generated identifier.
func (s *Store) Contains(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Get returns the generated identifier for key.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Put records key -> id. An existing entry is never reassigned; Put reports
// false and leaves the store unchanged in that case.
func (s *Store) Put(key, id string) bool {
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = id
	return true
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns all records ordered by original key.
func (s *Store) Entries() []Record {
	out := make([]Record, 0, len(s.entries))
	for k, v := range s.entries {
		out = append(out, Record{OriginalKey: k, GeneratedID: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OriginalKey < out[j].OriginalKey })
	return out
}

// Map returns a copy of the underlying mapping.
func (s *Store) Map() map[string]string {
	m := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		m[k] = v
	}
	return m
}
