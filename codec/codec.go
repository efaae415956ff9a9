// Package codec defines the value encoding boundary of the view layer.
// A codec must be deterministic (equal values encode to equal bytes)
// and self-delimiting, so that encoded values can be embedded in
// composite keys without ambiguity. The view layer treats encoded
// bytes as opaque.
package codec

// Codec encodes and decodes leaf values.
type Codec interface {
	// Marshal encodes the given value.
	Marshal(value any) ([]byte, error)

	// Unmarshal decodes data into the given pointer target.
	Unmarshal(data []byte, target any) error
}
