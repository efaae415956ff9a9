package views

import (
	"fmt"

	"github.com/chainstate/views/codec"
)

// RegisterView holds a single serializable value stored under the
// view's base key. An absent key reads as the zero value of T.
type RegisterView[T any] struct {
	ctx         Context
	codec       codec.Codec
	value       T
	loaded      bool
	dirty       bool
	deleted     bool
	stored      bool // a persisted value exists, valid when storedKnown
	storedKnown bool
}

// NewRegisterView creates a register over the given context.
func NewRegisterView[T any](ctx Context, c codec.Codec) *RegisterView[T] {
	return &RegisterView[T]{ctx: ctx, codec: c}
}

func (r *RegisterView[T]) Load() error {
	if r.loaded {
		return nil
	}
	data, found, err := r.ctx.ReadValue(nil)
	if err != nil {
		return err
	}
	if found {
		if err := r.codec.Unmarshal(data, &r.value); err != nil {
			return fmt.Errorf("%w; %v", ErrDeserialization, err)
		}
	}
	r.stored = found
	r.storedKnown = true
	r.loaded = true
	return nil
}

// Get returns the current value, loading it on first access.
func (r *RegisterView[T]) Get() (T, error) {
	if err := r.Load(); err != nil {
		var zero T
		return zero, err
	}
	return r.value, nil
}

// Set replaces the current value.
func (r *RegisterView[T]) Set(value T) {
	r.value = value
	r.loaded = true
	r.dirty = true
	r.deleted = false
}

func (r *RegisterView[T]) Flush(batch *Batch) error {
	if r.deleted {
		if r.storedKnown && !r.stored {
			return nil // nothing persisted to delete
		}
		batch.Delete(r.ctx.Key(nil))
		return nil
	}
	if !r.dirty {
		return nil
	}
	data, err := r.codec.Marshal(r.value)
	if err != nil {
		return fmt.Errorf("failed to encode register value; %w", err)
	}
	batch.Put(r.ctx.Key(nil), data)
	return nil
}

func (r *RegisterView[T]) MarkSaved() {
	if r.deleted {
		r.stored = false
		r.storedKnown = true
	} else if r.dirty {
		r.stored = true
		r.storedKnown = true
	}
	r.dirty = false
	r.deleted = false
}

func (r *RegisterView[T]) IsDirty() bool {
	return r.dirty || r.deleted
}

// Clear resets the register to the zero value and schedules the
// deletion of its stored key.
func (r *RegisterView[T]) Clear() {
	var zero T
	r.value = zero
	r.loaded = true
	r.dirty = false
	r.deleted = true
}
