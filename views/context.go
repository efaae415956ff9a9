package views

import (
	"golang.org/x/exp/slices"

	"github.com/chainstate/views/backend"
	"github.com/chainstate/views/common"
)

// Context binds one logical state root to a key-value store and a base
// key prefix. All keys produced by views are relative to that prefix,
// which isolates the namespaces of different state roots sharing one
// store. A Context is a small value type; deriving a sub-context only
// extends the prefix and never affects the parent. The store handle is
// the only shared part, there is no shared mutable cache.
type Context struct {
	store   backend.KVStore
	root    []byte
	base    []byte
	metrics Metrics
}

// ContextOption configures a Context at construction time.
type ContextOption func(*Context)

// WithMetrics injects a metrics sink receiving save/flush events.
func WithMetrics(m Metrics) ContextOption {
	return func(c *Context) {
		c.metrics = m
	}
}

// NewContext creates a context for the given state root. The root id
// may contain arbitrary bytes; it is encoded as a self-delimiting key
// segment, so no two distinct root ids produce overlapping key ranges.
func NewContext(store backend.KVStore, rootID []byte, opts ...ContextOption) Context {
	c := Context{
		store:   store,
		root:    slices.Clone(rootID),
		base:    common.EncodeKeySegment(rootID),
		metrics: NopMetrics{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithSuffix derives a sub-context whose base prefix is extended by the
// given suffix.
func (c Context) WithSuffix(suffix []byte) Context {
	base := make([]byte, 0, len(c.base)+len(suffix))
	base = append(base, c.base...)
	base = append(base, suffix...)
	c.base = base
	return c
}

// Key produces the absolute store key for the given suffix. The result
// is a fresh slice owned by the caller.
func (c Context) Key(suffix []byte) []byte {
	key := make([]byte, 0, len(c.base)+len(suffix))
	key = append(key, c.base...)
	return append(key, suffix...)
}

// Base returns a copy of the context's base key prefix.
func (c Context) Base() []byte {
	return slices.Clone(c.base)
}

// Root returns a copy of the state-root id this context is bound to.
func (c Context) Root() []byte {
	return slices.Clone(c.root)
}

// ReadValue reads the value stored under the given relative key. An
// absent key is reported through the found flag, not as an error.
func (c Context) ReadValue(key []byte) (value []byte, found bool, err error) {
	value, err = c.store.Get(c.Key(key))
	if err == backend.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// ReadMultiValues reads the values for the given relative keys. The
// result is aligned with the input; absent keys yield nil entries.
func (c Context) ReadMultiValues(keys [][]byte) ([][]byte, error) {
	absolute := make([][]byte, len(keys))
	for i, key := range keys {
		absolute[i] = c.Key(key)
	}
	return c.store.GetMulti(absolute)
}

// FindKeysByPrefix returns the relative suffixes of all stored keys
// starting with the given relative prefix, in ascending byte order.
func (c Context) FindKeysByPrefix(prefix []byte) ([][]byte, error) {
	it := c.ScanPrefix(prefix)
	defer it.Release()
	var res [][]byte
	for it.Next() {
		res = append(res, it.Key())
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanPrefix iterates all stored entries under the given relative
// prefix in ascending key order. The iterator yields keys relative to
// the prefix.
func (c Context) ScanPrefix(prefix []byte) backend.Iterator {
	start := c.Key(prefix)
	limit := common.PrefixUpperBound(start)
	return &trimmedIterator{it: c.store.NewIterator(start, limit), skip: len(start)}
}

// WriteBatch atomically commits the given batch to the backing store.
func (c Context) WriteBatch(batch *backend.Batch) error {
	return c.store.Apply(batch)
}

// trimmedIterator strips a fixed key prefix from an underlying store
// iterator.
type trimmedIterator struct {
	it   backend.Iterator
	skip int
}

func (t *trimmedIterator) Next() bool {
	return t.it.Next()
}

func (t *trimmedIterator) Key() []byte {
	return t.it.Key()[t.skip:]
}

func (t *trimmedIterator) Value() []byte {
	return t.it.Value()
}

func (t *trimmedIterator) Error() error {
	return t.it.Error()
}

func (t *trimmedIterator) Release() {
	t.it.Release()
}
