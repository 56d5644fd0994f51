package pebblekv

import (
	"encoding/json"
	"fmt"
)

// Codec converts values to and from the bytes Pebble stores.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// BytesCodec stores []byte and string values as-is and reads them back as
// []byte.
type BytesCodec struct{}

// Marshal accepts []byte, string and nil.
func (BytesCodec) Marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return []byte{}, nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// Unmarshal returns a copy of data.
func (BytesCodec) Unmarshal(data []byte) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// JSONCodec stores values as JSON. Values read back have the shapes
// encoding/json produces for an any target.
type JSONCodec struct{}

// Marshal encodes v as JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	return data, nil
}

// Unmarshal decodes JSON data.
func (JSONCodec) Unmarshal(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
