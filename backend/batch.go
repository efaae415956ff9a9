package backend

import (
	"fmt"

	"github.com/chainstate/views/common"
)

// OpKind distinguishes the mutation kinds a Batch can carry.
type OpKind byte

const (
	// OpPut sets Key to Value.
	OpPut OpKind = iota
	// OpDelete removes Key.
	OpDelete
	// OpDeleteRange removes every key in the half-open interval
	// [Key, Limit); a nil Limit means no upper bound.
	OpDeleteRange
)

// Op is one pending mutation within a Batch.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte // OpPut only
	Limit []byte // OpDeleteRange only
}

// Batch is an ordered list of pending mutations to be applied in one
// atomic write. A batch performs no deduplication or merging; stores
// apply its operations strictly in construction order, so a later
// operation on a key overrides an earlier one. The batch keeps the
// provided slices without copying, callers must not modify them until
// the batch has been applied.
type Batch struct {
	ops []Op
}

// Put schedules setting key to value.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, Op{Kind: OpPut, Key: key, Value: value})
}

// Delete schedules the removal of a single key.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, Op{Kind: OpDelete, Key: key})
}

// DeleteRange schedules the removal of every key in [start, limit).
// It covers an unbounded number of keys with a single operation.
func (b *Batch) DeleteRange(start, limit []byte) {
	b.ops = append(b.ops, Op{Kind: OpDeleteRange, Key: start, Limit: limit})
}

// DeletePrefix schedules the removal of every key starting with the
// given prefix.
func (b *Batch) DeletePrefix(prefix []byte) {
	b.DeleteRange(prefix, common.PrefixUpperBound(prefix))
}

// Ops exposes the accumulated operations in construction order.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Len returns the number of accumulated operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Reset drops all accumulated operations so the batch can be reused.
func (b *Batch) Reset() {
	b.ops = b.ops[:0]
}

func (k OpKind) String() string {
	switch k {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	case OpDeleteRange:
		return "delete-range"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}
