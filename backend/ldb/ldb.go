// Package ldb provides a backend.KVStore implementation backed by a
// LevelDB instance.
package ldb

import (
	"bytes"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/exp/slices"

	"github.com/chainstate/views/backend"
)

// Store is a LevelDB backed key-value store.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens a LevelDB instance at the given directory.
func OpenStore(path string, options *opt.Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s; %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if err == errors.ErrNotFound {
		return nil, backend.ErrNotFound
	}
	return value, err
}

func (s *Store) GetMulti(keys [][]byte) ([][]byte, error) {
	res := make([][]byte, len(keys))
	for i, key := range keys {
		value, err := s.db.Get(key, nil)
		if err == errors.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		res[i] = value
	}
	return res, nil
}

func (s *Store) NewIterator(start, limit []byte) backend.Iterator {
	return &iterator{it: s.db.NewIterator(&util.Range{Start: start, Limit: limit}, nil)}
}

// Apply commits the batch with a single LevelDB write. Delete-range
// operations are expanded to the keys they currently cover; a put
// appearing earlier in the same batch is overridden as well, so order
// semantics match the batch contract.
func (s *Store) Apply(batch *backend.Batch) error {
	ops := batch.Ops()
	ldbBatch := new(leveldb.Batch)
	for i, op := range ops {
		switch op.Kind {
		case backend.OpPut:
			ldbBatch.Put(op.Key, op.Value)
		case backend.OpDelete:
			ldbBatch.Delete(op.Key)
		case backend.OpDeleteRange:
			if err := s.expandRange(ldbBatch, op); err != nil {
				return err
			}
			for _, prev := range ops[:i] {
				if prev.Kind == backend.OpPut && inRange(prev.Key, op.Key, op.Limit) {
					ldbBatch.Delete(prev.Key)
				}
			}
		}
	}
	return s.db.Write(ldbBatch, nil)
}

func (s *Store) expandRange(ldbBatch *leveldb.Batch, op backend.Op) error {
	it := s.db.NewIterator(&util.Range{Start: op.Key, Limit: op.Limit}, nil)
	defer it.Release()
	for it.Next() {
		ldbBatch.Delete(slices.Clone(it.Key()))
	}
	return it.Error()
}

func inRange(key, start, limit []byte) bool {
	return bytes.Compare(key, start) >= 0 && (limit == nil || bytes.Compare(key, limit) < 0)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// iterator adapts a LevelDB iterator to the backend contract, which
// requires keys and values to outlive the next advancement.
type iterator struct {
	it    ldbIterator
	key   []byte
	value []byte
}

type ldbIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

func (it *iterator) Next() bool {
	if !it.it.Next() {
		return false
	}
	it.key = slices.Clone(it.it.Key())
	it.value = slices.Clone(it.it.Value())
	return true
}

func (it *iterator) Key() []byte {
	return it.key
}

func (it *iterator) Value() []byte {
	return it.value
}

func (it *iterator) Error() error {
	return it.it.Error()
}

func (it *iterator) Release() {
	it.it.Release()
}
