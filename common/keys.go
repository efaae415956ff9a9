package common

// ErrMalformedKeySegment is returned when decoding bytes that are not a
// valid key segment encoding.
const ErrMalformedKeySegment = ConstError("malformed key segment")

// Key segments are an order-preserving, self-delimiting encoding of
// arbitrary byte strings. Each zero byte of the input is escaped as
// {0x00, 0x01} and the segment is closed by the terminator {0x00, 0x00}.
// Since a zero byte inside a segment is always followed by 0x01, the
// terminator can never occur before the end of the segment, and thus no
// encoded segment is a strict prefix of another one. This property makes
// concatenated segments unambiguous and keeps prefix scans over one
// subtree from leaking into a sibling subtree, no matter what raw bytes
// the keys contain.

// EncodeKeySegment encodes the given raw bytes as a key segment.
func EncodeKeySegment(raw []byte) []byte {
	res := make([]byte, 0, len(raw)+2)
	return AppendKeySegment(res, raw)
}

// AppendKeySegment appends the key segment encoding of raw to dst.
func AppendKeySegment(dst []byte, raw []byte) []byte {
	for _, b := range raw {
		if b == 0 {
			dst = append(dst, 0, 1)
		} else {
			dst = append(dst, b)
		}
	}
	return append(dst, 0, 0)
}

// DecodeKeySegment decodes one key segment from the front of the input
// and returns the raw bytes together with the remainder of the input.
func DecodeKeySegment(encoded []byte) (raw []byte, rest []byte, err error) {
	res := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); i++ {
		b := encoded[i]
		if b != 0 {
			res = append(res, b)
			continue
		}
		if i+1 >= len(encoded) {
			return nil, nil, ErrMalformedKeySegment
		}
		switch encoded[i+1] {
		case 0:
			return res, encoded[i+2:], nil
		case 1:
			res = append(res, 0)
			i++
		default:
			return nil, nil, ErrMalformedKeySegment
		}
	}
	return nil, nil, ErrMalformedKeySegment
}

// PrefixUpperBound returns the smallest key that is greater than every
// key starting with the given prefix, to be used as an exclusive range
// limit. It returns nil when no such key exists (all bytes are 0xFF),
// which iterators interpret as an open upper end.
func PrefixUpperBound(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xFF {
			limit := make([]byte, i+1)
			copy(limit, prefix)
			limit[i]++
			return limit
		}
	}
	return nil
}
