package views

import "github.com/chainstate/views/common"

const (
	// ErrDeserialization indicates that stored bytes could not be
	// decoded into the expected value type.
	ErrDeserialization = common.ConstError("failed to deserialize stored value")

	// ErrMissingEntry indicates that an entry expected to be persisted
	// is absent from the backend.
	ErrMissingEntry = common.ConstError("missing stored entry")

	// ErrIndexOutOfRange is returned when accessing a sequence index
	// beyond the current length.
	ErrIndexOutOfRange = common.ConstError("index out of range")

	// ErrEmptyQueue is returned when reading or popping the front of an
	// empty queue.
	ErrEmptyQueue = common.ConstError("queue is empty")

	// ErrDuplicateField is returned when a root view schema declares
	// two fields with the same name.
	ErrDuplicateField = common.ConstError("duplicate field name in schema")

	// ErrTooManyFields is returned when a root view schema exceeds the
	// number of addressable child slots.
	ErrTooManyFields = common.ConstError("too many fields in schema")
)
