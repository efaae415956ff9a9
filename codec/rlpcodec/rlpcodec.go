// Package rlpcodec implements codec.Codec using Ethereum's RLP
// encoding. RLP is canonical by construction, but supports a narrower
// set of Go types than MessagePack (no maps, no signed integers).
package rlpcodec

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/chainstate/views/codec"
)

type rlpCodec struct{}

// New creates an RLP based codec.
func New() codec.Codec {
	return rlpCodec{}
}

func (rlpCodec) Marshal(value any) ([]byte, error) {
	return rlp.EncodeToBytes(value)
}

func (rlpCodec) Unmarshal(data []byte, target any) error {
	return rlp.DecodeBytes(data, target)
}
