package valkey

import (
	"encoding/json"
	"fmt"
)

// Canonicalizer is implemented by values that know their own serialisable
// form. Encode prefers it over the value itself.
type Canonicalizer interface {
	Canonical() any
}

// Encode serialises v as JSON, through its canonical form when it has one.
func Encode(v any) ([]byte, error) {
	if c, ok := v.(Canonicalizer); ok {
		v = c.Canonical()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return data, nil
}

// Decode parses JSON produced by Encode.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}
