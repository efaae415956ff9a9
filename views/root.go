package views

import "fmt"

// FieldSpec declares one named child of a root view: the field name and
// the constructor building the child view over its dedicated
// sub-context. A root schema is a static, ordered list of such specs,
// assembled once by the application author.
type FieldSpec struct {
	Name string
	New  func(Context) View
}

type rootField struct {
	name string
	view View
}

// RootView aggregates a fixed schema of named child views, each bound
// to a disjoint sub-key derived from its position. It is the only unit
// that is explicitly saved: Save flushes every child into one batch, in
// schema order, and issues exactly one atomic write. Dropping a root
// view without saving silently discards all buffered mutations.
type RootView struct {
	ctx       Context
	fields    []rootField
	index     map[string]int
	observers []BatchObserver
}

// RootOption configures a RootView at construction time.
type RootOption func(*RootView)

// WithObserver registers a consumer of every flushed batch, invoked
// after the batch is complete and before it is written.
func WithObserver(observer BatchObserver) RootOption {
	return func(r *RootView) {
		r.observers = append(r.observers, observer)
	}
}

// NewRootView builds a root view over the given context from a static
// schema. Child i lives under the sub-key consisting of the context's
// base prefix extended by the byte i.
func NewRootView(ctx Context, schema []FieldSpec, opts ...RootOption) (*RootView, error) {
	if len(schema) > 256 {
		return nil, ErrTooManyFields
	}
	root := &RootView{
		ctx:    ctx,
		fields: make([]rootField, len(schema)),
		index:  make(map[string]int, len(schema)),
	}
	for i, spec := range schema {
		if _, exists := root.index[spec.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, spec.Name)
		}
		root.index[spec.Name] = i
		root.fields[i] = rootField{
			name: spec.Name,
			view: spec.New(ctx.WithSuffix([]byte{byte(i)})),
		}
	}
	for _, opt := range opts {
		opt(root)
	}
	return root, nil
}

// Load loads every child view. Children with on-demand semantics stay
// cheap; sequence-like children read only their headers.
func (r *RootView) Load() error {
	for _, field := range r.fields {
		if err := field.view.Load(); err != nil {
			return fmt.Errorf("failed to load field %s; %w", field.name, err)
		}
	}
	return nil
}

// Field returns the child view registered under the given name.
func (r *RootView) Field(name string) (View, bool) {
	i, exists := r.index[name]
	if !exists {
		return nil, false
	}
	return r.fields[i].view, true
}

// IsDirty reports whether any child holds uncommitted mutations.
func (r *RootView) IsDirty() bool {
	for _, field := range r.fields {
		if field.view.IsDirty() {
			return true
		}
	}
	return false
}

// Save recursively flushes all children into one batch, in schema
// order, and commits it with a single atomic write. On failure no child
// state is touched, so a retried save re-attempts the identical diff.
func (r *RootView) Save() error {
	batch := &Batch{}
	for _, field := range r.fields {
		if err := field.view.Flush(batch); err != nil {
			return fmt.Errorf("failed to flush field %s; %w", field.name, err)
		}
		r.ctx.metrics.FlushDone(field.name)
	}
	for _, observer := range r.observers {
		observer.ObserveBatch(batch)
	}
	if err := r.ctx.WriteBatch(batch); err != nil {
		return err
	}
	for _, field := range r.fields {
		field.view.MarkSaved()
	}
	r.ctx.metrics.SaveDone(r.ctx.Root(), batch.Len())
	return nil
}

// DeleteAll retires the whole state root with a single delete-prefix
// operation over the root's base key, in one atomic write. The root
// view must be discarded afterwards.
func (r *RootView) DeleteAll() error {
	batch := &Batch{}
	batch.DeletePrefix(r.ctx.Base())
	return r.ctx.WriteBatch(batch)
}
