package views

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/chainstate/views/codec"
	"github.com/chainstate/views/common"
)

// mapUpdate is one buffered mutation of a MapView entry.
type mapUpdate[V any] struct {
	value   V
	removed bool
}

// MapView associates serializable keys with serializable leaf values.
// Nothing is read at load time; lookups hit the backend on demand and
// iteration lazily merges the buffered in-memory mutations with the
// persisted entries, deduplicated, deletion-aware, and in ascending
// order of the encoded keys.
//
// Keys are encoded with the codec and wrapped as self-delimiting key
// segments, so no entry key can be a byte-prefix of another one even
// when the raw key bytes collide that way.
type MapView[K any, V any] struct {
	ctx     Context
	codec   codec.Codec
	updates map[string]mapUpdate[V]
	cleared bool
}

// NewMapView creates a map over the given context.
func NewMapView[K any, V any](ctx Context, c codec.Codec) *MapView[K, V] {
	return &MapView[K, V]{ctx: ctx, codec: c, updates: map[string]mapUpdate[V]{}}
}

// encodeKey produces the entry sub-key segment for the given key.
func (m *MapView[K, V]) encodeKey(key K) (string, error) {
	data, err := m.codec.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode map key; %w", err)
	}
	return string(common.EncodeKeySegment(data)), nil
}

// decodeKey inverts encodeKey.
func (m *MapView[K, V]) decodeKey(segment []byte) (K, error) {
	var key K
	raw, rest, err := common.DecodeKeySegment(segment)
	if err != nil || len(rest) != 0 {
		return key, fmt.Errorf("map key segment; %w", ErrDeserialization)
	}
	if err := m.codec.Unmarshal(raw, &key); err != nil {
		return key, fmt.Errorf("%w; %v", ErrDeserialization, err)
	}
	return key, nil
}

func (m *MapView[K, V]) Load() error {
	return nil // map entries are looked up on demand
}

// Get returns the value stored under the key.
func (m *MapView[K, V]) Get(key K) (value V, found bool, err error) {
	var zero V
	segment, err := m.encodeKey(key)
	if err != nil {
		return zero, false, err
	}
	if update, exists := m.updates[segment]; exists {
		if update.removed {
			return zero, false, nil
		}
		return update.value, true, nil
	}
	if m.cleared {
		return zero, false, nil
	}
	data, found, err := m.ctx.ReadValue(taggedSuffix(tagEntry, []byte(segment)))
	if err != nil || !found {
		return zero, false, err
	}
	if err := m.codec.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("%w; %v", ErrDeserialization, err)
	}
	return value, true, nil
}

// Has reports whether the key is present.
func (m *MapView[K, V]) Has(key K) (bool, error) {
	_, found, err := m.Get(key)
	return found, err
}

// Insert associates the value with the key.
func (m *MapView[K, V]) Insert(key K, value V) error {
	segment, err := m.encodeKey(key)
	if err != nil {
		return err
	}
	m.updates[segment] = mapUpdate[V]{value: value}
	return nil
}

// Remove deletes the key.
func (m *MapView[K, V]) Remove(key K) error {
	segment, err := m.encodeKey(key)
	if err != nil {
		return err
	}
	if m.cleared {
		delete(m.updates, segment)
	} else {
		m.updates[segment] = mapUpdate[V]{removed: true}
	}
	return nil
}

// ForEach calls the callback for every entry in ascending encoded-key
// order.
func (m *MapView[K, V]) ForEach(callback func(K, V) error) error {
	return m.forEachSegment(func(segment []byte, persisted []byte, update *mapUpdate[V]) error {
		key, err := m.decodeKey(segment)
		if err != nil {
			return err
		}
		if update != nil {
			return callback(key, update.value)
		}
		var value V
		if err := m.codec.Unmarshal(persisted, &value); err != nil {
			return fmt.Errorf("%w; %v", ErrDeserialization, err)
		}
		return callback(key, value)
	})
}

// ForEachKey calls the callback for every present key in ascending
// encoded-key order.
func (m *MapView[K, V]) ForEachKey(callback func(K) error) error {
	return m.forEachSegment(func(segment []byte, persisted []byte, update *mapUpdate[V]) error {
		key, err := m.decodeKey(segment)
		if err != nil {
			return err
		}
		return callback(key)
	})
}

// Count returns the number of present entries.
func (m *MapView[K, V]) Count() (count int, err error) {
	err = m.forEachSegment(func([]byte, []byte, *mapUpdate[V]) error {
		count++
		return nil
	})
	return count, err
}

// forEachSegment merges the sorted in-memory updates with the ordered
// backend scan. For an entry overridden in memory the update is passed,
// for a purely persisted entry its stored bytes; tombstones and, after
// a clear, all persisted entries are skipped.
func (m *MapView[K, V]) forEachSegment(callback func(segment, persisted []byte, update *mapUpdate[V]) error) error {
	segments := make([]string, 0, len(m.updates))
	for segment := range m.updates {
		segments = append(segments, segment)
	}
	slices.Sort(segments)

	emitUpdate := func(segment string) error {
		update := m.updates[segment]
		if update.removed {
			return nil
		}
		return callback([]byte(segment), nil, &update)
	}

	if !m.cleared {
		it := m.ctx.ScanPrefix([]byte{tagEntry})
		defer it.Release()
		for it.Next() {
			stored := string(it.Key())
			for len(segments) > 0 && segments[0] < stored {
				if err := emitUpdate(segments[0]); err != nil {
					return err
				}
				segments = segments[1:]
			}
			if len(segments) > 0 && segments[0] == stored {
				if err := emitUpdate(segments[0]); err != nil {
					return err
				}
				segments = segments[1:]
				continue
			}
			if err := callback(it.Key(), it.Value(), nil); err != nil {
				return err
			}
		}
		if err := it.Error(); err != nil {
			return err
		}
	}
	for _, segment := range segments {
		if err := emitUpdate(segment); err != nil {
			return err
		}
	}
	return nil
}

func (m *MapView[K, V]) Flush(batch *Batch) error {
	if m.cleared {
		batch.DeletePrefix(m.ctx.Key(nil))
	}
	segments := make([]string, 0, len(m.updates))
	for segment := range m.updates {
		segments = append(segments, segment)
	}
	slices.Sort(segments)
	for _, segment := range segments {
		update := m.updates[segment]
		key := m.ctx.Key(taggedSuffix(tagEntry, []byte(segment)))
		if update.removed {
			batch.Delete(key)
			continue
		}
		data, err := m.codec.Marshal(update.value)
		if err != nil {
			return fmt.Errorf("failed to encode map value; %w", err)
		}
		batch.Put(key, data)
	}
	return nil
}

func (m *MapView[K, V]) MarkSaved() {
	m.updates = map[string]mapUpdate[V]{}
	m.cleared = false
}

func (m *MapView[K, V]) IsDirty() bool {
	return m.cleared || len(m.updates) > 0
}

// Clear drops all entries; the next flush removes the whole key range
// with a single delete-prefix operation.
func (m *MapView[K, V]) Clear() {
	m.updates = map[string]mapUpdate[V]{}
	m.cleared = true
}
