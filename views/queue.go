package views

import (
	"fmt"

	"github.com/chainstate/views/codec"
)

// queueCursors is the persisted header of a QueueView. Front marks the
// first live entry, Back the next index to be assigned. Both cursors
// only ever grow; the index space of a queue is never reused, even
// after the queue empties and refills across save/load cycles.
type queueCursors struct {
	Front uint64
	Back  uint64
}

// QueueView is a FIFO container with independently persisted front and
// back cursors. Pops advance the front cursor logically; the vacated
// index range is removed at flush time with a single delete-range
// operation, so bulk pops stay cheap regardless of their size.
type QueueView[T any] struct {
	ctx     Context
	codec   codec.Codec
	stored  queueCursors // cursors as currently persisted
	front   uint64       // logical front, >= stored.Front
	pending []T          // entries pushed after stored.Back
	loaded  bool
	dirty   bool
	cleared bool
}

// NewQueueView creates a queue over the given context.
func NewQueueView[T any](ctx Context, c codec.Codec) *QueueView[T] {
	return &QueueView[T]{ctx: ctx, codec: c}
}

func (q *QueueView[T]) Load() error {
	if q.loaded {
		return nil
	}
	data, found, err := q.ctx.ReadValue(metaSuffix)
	if err != nil {
		return err
	}
	if found {
		if err := q.codec.Unmarshal(data, &q.stored); err != nil {
			return fmt.Errorf("%w; %v", ErrDeserialization, err)
		}
	}
	q.front = q.stored.Front
	if q.cleared {
		// a clear issued before loading empties the queue at the
		// persisted back cursor, the index space stays monotonic
		q.front = q.stored.Back
	}
	q.loaded = true
	return nil
}

// back returns the logical back cursor.
func (q *QueueView[T]) back() uint64 {
	return q.stored.Back + uint64(len(q.pending))
}

// Count returns the number of live entries.
func (q *QueueView[T]) Count() (uint64, error) {
	if err := q.Load(); err != nil {
		return 0, err
	}
	return q.back() - q.front, nil
}

// PushBack appends a value at the back of the queue.
func (q *QueueView[T]) PushBack(value T) error {
	if err := q.Load(); err != nil {
		return err
	}
	q.pending = append(q.pending, value)
	q.dirty = true
	return nil
}

// Front returns the first live entry.
func (q *QueueView[T]) Front() (T, error) {
	var zero T
	if err := q.Load(); err != nil {
		return zero, err
	}
	if q.front >= q.back() {
		return zero, ErrEmptyQueue
	}
	if q.front >= q.stored.Back {
		return q.pending[q.front-q.stored.Back], nil
	}
	data, found, err := q.ctx.ReadValue(entrySuffix(q.front))
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, fmt.Errorf("queue entry %d; %w", q.front, ErrMissingEntry)
	}
	var value T
	if err := q.codec.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("%w; %v", ErrDeserialization, err)
	}
	return value, nil
}

// DeleteFront removes the first live entry logically; the stored entry
// is removed on the next flush.
func (q *QueueView[T]) DeleteFront() error {
	if err := q.Load(); err != nil {
		return err
	}
	if q.front >= q.back() {
		return ErrEmptyQueue
	}
	q.front++
	q.dirty = true
	return nil
}

// ForEach calls the callback for every live entry in FIFO order.
func (q *QueueView[T]) ForEach(callback func(T) error) error {
	if err := q.Load(); err != nil {
		return err
	}
	if q.front < q.stored.Back {
		keys := make([][]byte, 0, q.stored.Back-q.front)
		for i := q.front; i < q.stored.Back; i++ {
			keys = append(keys, entrySuffix(i))
		}
		values, err := q.ctx.ReadMultiValues(keys)
		if err != nil {
			return err
		}
		for i, data := range values {
			if data == nil {
				return fmt.Errorf("queue entry %d; %w", q.front+uint64(i), ErrMissingEntry)
			}
			var value T
			if err := q.codec.Unmarshal(data, &value); err != nil {
				return fmt.Errorf("%w; %v", ErrDeserialization, err)
			}
			if err := callback(value); err != nil {
				return err
			}
		}
	}
	pendingStart := uint64(0)
	if q.front > q.stored.Back {
		pendingStart = q.front - q.stored.Back
	}
	for _, value := range q.pending[pendingStart:] {
		if err := callback(value); err != nil {
			return err
		}
	}
	return nil
}

func (q *QueueView[T]) Flush(batch *Batch) error {
	if !q.dirty {
		return nil
	}
	if err := q.Load(); err != nil {
		return err
	}
	if q.cleared {
		batch.DeletePrefix(q.ctx.Key(nil))
	} else if q.front > q.stored.Front {
		limit := q.front
		if limit > q.stored.Back {
			limit = q.stored.Back
		}
		if limit > q.stored.Front {
			batch.DeleteRange(q.ctx.Key(entrySuffix(q.stored.Front)), q.ctx.Key(entrySuffix(limit)))
		}
	}
	for i, value := range q.pending {
		index := q.stored.Back + uint64(i)
		if index < q.front {
			continue // pushed and popped again before this save
		}
		data, err := q.codec.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode queue entry; %w", err)
		}
		batch.Put(q.ctx.Key(entrySuffix(index)), data)
	}
	cursors, err := q.codec.Marshal(queueCursors{Front: q.front, Back: q.back()})
	if err != nil {
		return fmt.Errorf("failed to encode queue cursors; %w", err)
	}
	batch.Put(q.ctx.Key(metaSuffix), cursors)
	return nil
}

func (q *QueueView[T]) MarkSaved() {
	q.stored = queueCursors{Front: q.front, Back: q.back()}
	q.pending = nil
	q.cleared = false
	q.dirty = false
}

func (q *QueueView[T]) IsDirty() bool {
	return q.dirty
}

// Clear drops all live entries with a single delete-prefix operation at
// the next flush. The cursors are re-persisted afterwards, keeping the
// index space monotonic.
func (q *QueueView[T]) Clear() {
	if q.loaded {
		q.front = q.stored.Back
	}
	q.pending = nil
	q.cleared = true
	q.dirty = true
}
