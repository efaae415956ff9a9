package views

import "github.com/chainstate/views/codec"

// setMarker is the stored payload of a set member; only the presence of
// its key matters.
type setMarker struct{}

// SetView keeps a set of serializable keys with presence-only
// semantics. It is a thin specialization of MapView and shares its
// flush and iteration contract.
type SetView[K any] struct {
	entries *MapView[K, setMarker]
}

// NewSetView creates a set over the given context.
func NewSetView[K any](ctx Context, c codec.Codec) *SetView[K] {
	return &SetView[K]{entries: NewMapView[K, setMarker](ctx, c)}
}

func (s *SetView[K]) Load() error {
	return s.entries.Load()
}

// Insert adds the key to the set.
func (s *SetView[K]) Insert(key K) error {
	return s.entries.Insert(key, setMarker{})
}

// Remove deletes the key from the set.
func (s *SetView[K]) Remove(key K) error {
	return s.entries.Remove(key)
}

// Has reports whether the key is in the set.
func (s *SetView[K]) Has(key K) (bool, error) {
	return s.entries.Has(key)
}

// ForEach calls the callback for every member in ascending encoded-key
// order.
func (s *SetView[K]) ForEach(callback func(K) error) error {
	return s.entries.ForEachKey(callback)
}

// Count returns the number of members.
func (s *SetView[K]) Count() (int, error) {
	return s.entries.Count()
}

func (s *SetView[K]) Flush(batch *Batch) error {
	return s.entries.Flush(batch)
}

func (s *SetView[K]) MarkSaved() {
	s.entries.MarkSaved()
}

func (s *SetView[K]) IsDirty() bool {
	return s.entries.IsDirty()
}

func (s *SetView[K]) Clear() {
	s.entries.Clear()
}
