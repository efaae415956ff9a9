// Package memory provides an in-memory backend.KVStore implementation,
// intended for tests and examples. All data is lost on Close.
package memory

import (
	"bytes"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/chainstate/views/backend"
)

// Store keeps all key-value pairs in an in-process map guarded by a
// single lock. Apply holds the write lock for the whole batch, which
// makes the commit trivially atomic.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: map[string][]byte{}}
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, exists := s.data[string(key)]
	if !exists {
		return nil, backend.ErrNotFound
	}
	return slices.Clone(value), nil
}

func (s *Store) GetMulti(keys [][]byte) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([][]byte, len(keys))
	for i, key := range keys {
		if value, exists := s.data[string(key)]; exists {
			res[i] = slices.Clone(value)
		}
	}
	return res, nil
}

func (s *Store) NewIterator(start, limit []byte) backend.Iterator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// The iterator runs over a snapshot of the matching entries so that
	// it stays valid while the store keeps being modified.
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		if start != nil && key < string(start) {
			continue
		}
		if limit != nil && key >= string(limit) {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	entries := make([]entry, len(keys))
	for i, key := range keys {
		entries[i] = entry{key: []byte(key), value: slices.Clone(s.data[key])}
	}
	return &iterator{entries: entries, pos: -1}
}

func (s *Store) Apply(batch *backend.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range batch.Ops() {
		switch op.Kind {
		case backend.OpPut:
			s.data[string(op.Key)] = slices.Clone(op.Value)
		case backend.OpDelete:
			delete(s.data, string(op.Key))
		case backend.OpDeleteRange:
			for key := range s.data {
				if bytes.Compare([]byte(key), op.Key) >= 0 &&
					(op.Limit == nil || bytes.Compare([]byte(key), op.Limit) < 0) {
					delete(s.data, key)
				}
			}
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string][]byte{}
	return nil
}

type entry struct {
	key   []byte
	value []byte
}

type iterator struct {
	entries []entry
	pos     int
}

func (it *iterator) Next() bool {
	if it.pos+1 >= len(it.entries) {
		return false
	}
	it.pos++
	return true
}

func (it *iterator) Key() []byte {
	return it.entries[it.pos].key
}

func (it *iterator) Value() []byte {
	return it.entries[it.pos].value
}

func (it *iterator) Error() error {
	return nil
}

func (it *iterator) Release() {
	it.entries = nil
	it.pos = -1
}
