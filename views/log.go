package views

import (
	"fmt"

	"github.com/chainstate/views/codec"
)

// LogView is an append-only sequence addressed by a monotonically
// increasing index. Loading reads only the length header; persisted
// entries are fetched on demand and merged with the in-memory tail of
// not-yet-flushed appends, preserving strict index order with no gaps.
// A flush appends one put per new entry plus the updated length header
// and never rewrites existing entries.
type LogView[T any] struct {
	ctx         Context
	codec       codec.Codec
	storedCount uint64
	pending     []T
	loaded      bool
	dirty       bool
	cleared     bool
}

// NewLogView creates a log over the given context.
func NewLogView[T any](ctx Context, c codec.Codec) *LogView[T] {
	return &LogView[T]{ctx: ctx, codec: c}
}

func (l *LogView[T]) Load() error {
	if l.loaded {
		return nil
	}
	data, found, err := l.ctx.ReadValue(metaSuffix)
	if err != nil {
		return err
	}
	if found {
		if err := l.codec.Unmarshal(data, &l.storedCount); err != nil {
			return fmt.Errorf("%w; %v", ErrDeserialization, err)
		}
	}
	l.loaded = true
	return nil
}

// Count returns the logical length including unflushed appends.
func (l *LogView[T]) Count() (uint64, error) {
	if err := l.Load(); err != nil {
		return 0, err
	}
	return l.storedCount + uint64(len(l.pending)), nil
}

// Append adds a value at the end of the log.
func (l *LogView[T]) Append(value T) error {
	if err := l.Load(); err != nil {
		return err
	}
	l.pending = append(l.pending, value)
	l.dirty = true
	return nil
}

// Get returns the value at the given index.
func (l *LogView[T]) Get(index uint64) (T, error) {
	var zero T
	if err := l.Load(); err != nil {
		return zero, err
	}
	if index >= l.storedCount+uint64(len(l.pending)) {
		return zero, ErrIndexOutOfRange
	}
	if index >= l.storedCount {
		return l.pending[index-l.storedCount], nil
	}
	data, found, err := l.ctx.ReadValue(entrySuffix(index))
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, fmt.Errorf("log entry %d; %w", index, ErrMissingEntry)
	}
	var value T
	if err := l.codec.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("%w; %v", ErrDeserialization, err)
	}
	return value, nil
}

// ForEach calls the callback for every entry in index order.
func (l *LogView[T]) ForEach(callback func(T) error) error {
	if err := l.Load(); err != nil {
		return err
	}
	if l.storedCount > 0 {
		keys := make([][]byte, l.storedCount)
		for i := uint64(0); i < l.storedCount; i++ {
			keys[i] = entrySuffix(i)
		}
		values, err := l.ctx.ReadMultiValues(keys)
		if err != nil {
			return err
		}
		for i, data := range values {
			if data == nil {
				return fmt.Errorf("log entry %d; %w", i, ErrMissingEntry)
			}
			var value T
			if err := l.codec.Unmarshal(data, &value); err != nil {
				return fmt.Errorf("%w; %v", ErrDeserialization, err)
			}
			if err := callback(value); err != nil {
				return err
			}
		}
	}
	for _, value := range l.pending {
		if err := callback(value); err != nil {
			return err
		}
	}
	return nil
}

func (l *LogView[T]) Flush(batch *Batch) error {
	if l.cleared {
		batch.DeletePrefix(l.ctx.Key(nil))
	}
	if len(l.pending) == 0 {
		return nil
	}
	for i, value := range l.pending {
		data, err := l.codec.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode log entry; %w", err)
		}
		batch.Put(l.ctx.Key(entrySuffix(l.storedCount+uint64(i))), data)
	}
	count, err := l.codec.Marshal(l.storedCount + uint64(len(l.pending)))
	if err != nil {
		return fmt.Errorf("failed to encode log length; %w", err)
	}
	batch.Put(l.ctx.Key(metaSuffix), count)
	return nil
}

func (l *LogView[T]) MarkSaved() {
	l.storedCount += uint64(len(l.pending))
	l.pending = nil
	l.cleared = false
	l.dirty = false
}

func (l *LogView[T]) IsDirty() bool {
	return l.dirty
}

// Clear drops all entries. The next flush removes the whole key range
// of the log with a single delete-prefix operation, so clearing cost
// does not depend on the number of persisted entries.
func (l *LogView[T]) Clear() {
	l.storedCount = 0
	l.pending = nil
	l.loaded = true
	l.cleared = true
	l.dirty = true
}
