package views

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/chainstate/views/backend"
)

// BatchObserver consumes completed batches before they are written.
// The view layer treats observers as opaque consumers of the flushed
// bytes; hashing schemes and other derived state belong to them.
type BatchObserver interface {
	ObserveBatch(batch *Batch)
}

// SaveDigest folds every observed batch into a running sha3-256 digest
// of the flushed operations, providing a cheap commitment to the
// mutation history of one state root.
type SaveDigest struct {
	hasher hash.Hash
}

// NewSaveDigest creates an empty digest.
func NewSaveDigest() *SaveDigest {
	return &SaveDigest{hasher: sha3.New256()}
}

func (d *SaveDigest) ObserveBatch(batch *Batch) {
	var length [8]byte
	writeChunk := func(data []byte) {
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		d.hasher.Write(length[:])
		d.hasher.Write(data)
	}
	for _, op := range batch.Ops() {
		d.hasher.Write([]byte{byte(op.Kind)})
		switch op.Kind {
		case backend.OpPut:
			writeChunk(op.Key)
			writeChunk(op.Value)
		case backend.OpDelete:
			writeChunk(op.Key)
		case backend.OpDeleteRange:
			writeChunk(op.Key)
			writeChunk(op.Limit)
		}
	}
}

// Sum returns the current digest value.
func (d *SaveDigest) Sum() []byte {
	return d.hasher.Sum(nil)
}
