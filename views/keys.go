package views

import "encoding/binary"

// Every view owns the whole key range under its base prefix and
// subdivides it with single reserved tag bytes: 0x00 for metadata
// (length headers, queue cursors, collection membership markers) and
// 0x01 for payload (indexed entries, map values, child subtrees).
// Sibling views can therefore never produce colliding keys as long as
// their base prefixes are distinct and prefix-free.
const (
	tagMeta  byte = 0x00
	tagEntry byte = 0x01
)

var metaSuffix = []byte{tagMeta}

// entrySuffix addresses the indexed entry of a sequence-like view.
func entrySuffix(index uint64) []byte {
	suffix := make([]byte, 9)
	suffix[0] = tagEntry
	binary.BigEndian.PutUint64(suffix[1:], index)
	return suffix
}

// taggedSuffix addresses a keyed entry under the given tag byte.
func taggedSuffix(tag byte, encoded []byte) []byte {
	suffix := make([]byte, 0, 1+len(encoded))
	suffix = append(suffix, tag)
	return append(suffix, encoded...)
}
