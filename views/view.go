// Package views maps structured, mutable application state onto an
// ordered key-value store. Containers (registers, logs, queues, maps,
// sets, and collections of nested sub-views) load their data lazily,
// buffer all mutations in memory, and flush minimal diffs into a single
// batch that a root view commits with one atomic write.
package views

import "github.com/chainstate/views/backend"

// Batch is the ordered list of pending mutations a save commits
// atomically.
type Batch = backend.Batch

// View is the shared lifecycle contract of every container kind.
//
// A view starts unloaded, becomes loaded on first access, turns dirty
// on any in-memory mutation, and returns to a clean state once its diff
// has been committed. Mutating accessors never touch the backend; all
// persistence flows through Flush followed by a successful batch write.
type View interface {
	// Load brings the minimal necessary state into memory: headers and
	// cursors for sequence-like containers, nothing for map-like ones.
	// On failure the view stays unloaded.
	Load() error

	// Flush appends the diff between the last persisted and the current
	// in-memory state to the batch. It does not modify the view, so a
	// failed commit can simply flush again; flushing a clean view
	// appends nothing.
	Flush(batch *Batch) error

	// MarkSaved tells the view that its previously flushed diff has
	// been committed. It folds the buffered mutations into the
	// persisted baseline and clears the dirty flag.
	MarkSaved()

	// IsDirty reports whether the view holds in-memory mutations that
	// are not yet committed.
	IsDirty() bool

	// Clear resets the view to an empty state and marks it, including
	// all persisted descendants, for wholesale deletion. The next flush
	// emits a single delete-prefix operation for the view's key range
	// rather than one delete per entry.
	Clear()
}
