// Package boltdb provides a backend.KVStore implementation backed by a
// bbolt database file. All state lives in a single bucket; the batch is
// applied inside one bbolt write transaction, which provides the
// required atomicity directly.
package boltdb

import (
	"bytes"
	"fmt"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/exp/slices"

	"github.com/chainstate/views/backend"
)

var bucketName = []byte("state")

// Store is a bbolt backed key-value store.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) a bbolt database at the given file path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database at %s; %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key []byte) (value []byte, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(bucketName).Get(key); data != nil {
			value = slices.Clone(data)
			return nil
		}
		return backend.ErrNotFound
	})
	return value, err
}

func (s *Store) GetMulti(keys [][]byte) ([][]byte, error) {
	res := make([][]byte, len(keys))
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for i, key := range keys {
			if data := bucket.Get(key); data != nil {
				res[i] = slices.Clone(data)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// NewIterator materializes the requested range under a read
// transaction, since bbolt cursors are only valid while their
// transaction is open.
func (s *Store) NewIterator(start, limit []byte) backend.Iterator {
	it := &iterator{pos: -1}
	it.err = s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketName).Cursor()
		key, value := cursor.Seek(start)
		if start == nil {
			key, value = cursor.First()
		}
		for ; key != nil; key, value = cursor.Next() {
			if limit != nil && bytes.Compare(key, limit) >= 0 {
				break
			}
			it.entries = append(it.entries, entry{
				key:   slices.Clone(key),
				value: slices.Clone(value),
			})
		}
		return nil
	})
	return it
}

func (s *Store) Apply(batch *backend.Batch) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, op := range batch.Ops() {
			var err error
			switch op.Kind {
			case backend.OpPut:
				err = bucket.Put(op.Key, op.Value)
			case backend.OpDelete:
				err = bucket.Delete(op.Key)
			case backend.OpDeleteRange:
				err = deleteRange(bucket, op.Key, op.Limit)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteRange(bucket *bolt.Bucket, start, limit []byte) error {
	cursor := bucket.Cursor()
	key, _ := cursor.Seek(start)
	if start == nil {
		key, _ = cursor.First()
	}
	var doomed [][]byte
	for ; key != nil; key, _ = cursor.Next() {
		if limit != nil && bytes.Compare(key, limit) >= 0 {
			break
		}
		doomed = append(doomed, slices.Clone(key))
	}
	for _, key := range doomed {
		if err := bucket.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type entry struct {
	key   []byte
	value []byte
}

type iterator struct {
	entries []entry
	pos     int
	err     error
}

func (it *iterator) Next() bool {
	if it.err != nil || it.pos+1 >= len(it.entries) {
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
	return it.err
}

func (it *iterator) Release() {
	it.entries = nil
	it.pos = -1
}
