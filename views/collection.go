package views

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/chainstate/views/codec"
	"github.com/chainstate/views/common"
)

// CollectionView associates serializable keys with nested sub-views,
// forming a recursive tree of state. Each child view is exclusively
// owned by its collection and bound to a disjoint sub-context below the
// collection's prefix; only the store handle of the Context is shared.
// Membership is tracked through marker keys in the collection's own
// keyspace, flushed after the children so that structural changes land
// behind the data they describe.
type CollectionView[K any, Sub View] struct {
	ctx      Context
	codec    codec.Codec
	newSub   func(Context) Sub
	children map[string]Sub
	added    map[string]bool
	removed  map[string]bool
	cleared  bool
}

// NewCollectionView creates a collection over the given context. The
// newSub constructor is invoked once per accessed key, with a
// sub-context dedicated to that child.
func NewCollectionView[K any, Sub View](ctx Context, c codec.Codec, newSub func(Context) Sub) *CollectionView[K, Sub] {
	return &CollectionView[K, Sub]{
		ctx:      ctx,
		codec:    c,
		newSub:   newSub,
		children: map[string]Sub{},
		added:    map[string]bool{},
		removed:  map[string]bool{},
	}
}

func (c *CollectionView[K, Sub]) encodeKey(key K) (string, error) {
	data, err := c.codec.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode collection key; %w", err)
	}
	return string(common.EncodeKeySegment(data)), nil
}

func (c *CollectionView[K, Sub]) decodeKey(segment []byte) (K, error) {
	var key K
	raw, rest, err := common.DecodeKeySegment(segment)
	if err != nil || len(rest) != 0 {
		return key, fmt.Errorf("collection key segment; %w", ErrDeserialization)
	}
	if err := c.codec.Unmarshal(raw, &key); err != nil {
		return key, fmt.Errorf("%w; %v", ErrDeserialization, err)
	}
	return key, nil
}

func (c *CollectionView[K, Sub]) Load() error {
	return nil // children and membership are looked up on demand
}

// Entry returns the sub-view stored under the key, creating it when
// absent. A child re-created after a removal or a clear starts empty
// and wipes its stale key range at the next flush.
func (c *CollectionView[K, Sub]) Entry(key K) (Sub, error) {
	var zero Sub
	segment, err := c.encodeKey(key)
	if err != nil {
		return zero, err
	}
	if child, exists := c.children[segment]; exists {
		return child, nil
	}
	child := c.newSub(c.ctx.WithSuffix(taggedSuffix(tagEntry, []byte(segment))))
	if c.cleared || c.removed[segment] {
		child.Clear()
		delete(c.removed, segment)
		c.added[segment] = true
	} else if !c.added[segment] {
		_, persisted, err := c.ctx.ReadValue(taggedSuffix(tagMeta, []byte(segment)))
		if err != nil {
			return zero, err
		}
		if !persisted {
			c.added[segment] = true
		}
	}
	c.children[segment] = child
	return child, nil
}

// Has reports whether the key has an entry.
func (c *CollectionView[K, Sub]) Has(key K) (bool, error) {
	segment, err := c.encodeKey(key)
	if err != nil {
		return false, err
	}
	if c.added[segment] {
		return true, nil
	}
	if c.cleared || c.removed[segment] {
		return false, nil
	}
	_, persisted, err := c.ctx.ReadValue(taggedSuffix(tagMeta, []byte(segment)))
	return persisted, err
}

// Remove drops the entry under the key and marks its whole subtree for
// deletion at the next flush.
func (c *CollectionView[K, Sub]) Remove(key K) error {
	segment, err := c.encodeKey(key)
	if err != nil {
		return err
	}
	delete(c.children, segment)
	delete(c.added, segment)
	if !c.cleared {
		c.removed[segment] = true
	}
	return nil
}

// ForEachKey calls the callback for every present key in ascending
// encoded-key order, merging persisted membership with buffered
// structural changes.
func (c *CollectionView[K, Sub]) ForEachKey(callback func(K) error) error {
	pending := make([]string, 0, len(c.added))
	for segment := range c.added {
		pending = append(pending, segment)
	}
	slices.Sort(pending)

	emit := func(segment []byte) error {
		key, err := c.decodeKey(segment)
		if err != nil {
			return err
		}
		return callback(key)
	}

	if !c.cleared {
		it := c.ctx.ScanPrefix([]byte{tagMeta})
		defer it.Release()
		for it.Next() {
			stored := string(it.Key())
			for len(pending) > 0 && pending[0] < stored {
				if err := emit([]byte(pending[0])); err != nil {
					return err
				}
				pending = pending[1:]
			}
			if len(pending) > 0 && pending[0] == stored {
				pending = pending[1:]
			} else if c.removed[stored] {
				continue
			}
			if err := emit(it.Key()); err != nil {
				return err
			}
		}
		if err := it.Error(); err != nil {
			return err
		}
	}
	for _, segment := range pending {
		if err := emit([]byte(segment)); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of entries.
func (c *CollectionView[K, Sub]) Count() (count int, err error) {
	err = c.ForEachKey(func(K) error {
		count++
		return nil
	})
	return count, err
}

// Flush first removes whatever the buffered structural changes doom
// (the whole collection after a clear, individual subtrees after
// removals), then recursively flushes every live child, and finally
// records membership changes in the collection's own keyspace.
func (c *CollectionView[K, Sub]) Flush(batch *Batch) error {
	if c.cleared {
		batch.DeletePrefix(c.ctx.Key(nil))
	} else {
		for _, segment := range sortedKeys(c.removed) {
			batch.DeletePrefix(c.ctx.Key(taggedSuffix(tagEntry, []byte(segment))))
			batch.Delete(c.ctx.Key(taggedSuffix(tagMeta, []byte(segment))))
		}
	}
	for _, segment := range sortedKeys(c.children) {
		if err := c.children[segment].Flush(batch); err != nil {
			return err
		}
	}
	for _, segment := range sortedKeys(c.added) {
		batch.Put(c.ctx.Key(taggedSuffix(tagMeta, []byte(segment))), []byte{})
	}
	return nil
}

func (c *CollectionView[K, Sub]) MarkSaved() {
	for _, child := range c.children {
		child.MarkSaved()
	}
	c.added = map[string]bool{}
	c.removed = map[string]bool{}
	c.cleared = false
}

func (c *CollectionView[K, Sub]) IsDirty() bool {
	if c.cleared || len(c.added) > 0 || len(c.removed) > 0 {
		return true
	}
	for _, child := range c.children {
		if child.IsDirty() {
			return true
		}
	}
	return false
}

// Clear drops every entry; the next flush removes the collection's
// whole key range, markers and child subtrees alike, with a single
// delete-prefix operation.
func (c *CollectionView[K, Sub]) Clear() {
	c.children = map[string]Sub{}
	c.added = map[string]bool{}
	c.removed = map[string]bool{}
	c.cleared = true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
