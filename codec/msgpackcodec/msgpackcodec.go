// Package msgpackcodec implements codec.Codec using MessagePack.
// Map keys are sorted during encoding to keep the output deterministic.
package msgpackcodec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chainstate/views/codec"
)

type msgpackCodec struct{}

// New creates a MessagePack based codec.
func New() codec.Codec {
	return msgpackCodec{}
}

func (msgpackCodec) Marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, target any) error {
	return msgpack.Unmarshal(data, target)
}
