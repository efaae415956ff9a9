package backend

import "github.com/chainstate/views/common"

//go:generate mockgen -source kvstore.go -destination kvstore_mocks.go -package backend

// ErrNotFound is returned by KVStore.Get when the requested key is not
// present. Drivers normalize their engine's not-found error to this one.
const ErrNotFound = common.ConstError("key not found")

// KVStore is the minimal contract a key-value engine must fulfill to
// serve as a views backend: point reads, ordered range iteration, and
// atomic application of an ordered batch of mutations. Implementations
// must be safe for concurrent use.
type KVStore interface {
	// Get returns the value stored under the key, or ErrNotFound.
	// The returned slice is a copy owned by the caller.
	Get(key []byte) ([]byte, error)

	// GetMulti returns the values for the given keys, aligned with the
	// input; absent keys yield a nil entry instead of an error.
	GetMulti(keys [][]byte) ([][]byte, error)

	// NewIterator iterates all stored keys in the half-open interval
	// [start, limit) in ascending byte order. A nil start means the
	// first key, a nil limit means no upper bound. The iterator must be
	// released after use.
	NewIterator(start, limit []byte) Iterator

	// Apply atomically commits all operations of the batch, in order.
	// Either every operation takes effect or none does.
	Apply(batch *Batch) error

	// Close releases the underlying resources.
	Close() error
}

// Iterator walks a key range in ascending byte order. Key and Value
// return copies that remain valid after the iterator advances.
type Iterator interface {
	// Next moves to the next entry, returning false when exhausted.
	Next() bool

	// Key returns the key of the current entry.
	Key() []byte

	// Value returns the value of the current entry.
	Value() []byte

	// Error returns the first error encountered while iterating.
	Error() error

	// Release frees resources held by the iterator.
	Release()
}
