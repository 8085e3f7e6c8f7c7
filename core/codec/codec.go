// Package codec converts request and response bodies between wire bytes
// and structured values.
package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	// ErrParse is wrapped by every decode failure.
	ErrParse = errors.New("malformed structured value")
)

// Codec defines the interface for encoding/decoding structured bodies
type Codec interface {
	// Decode parses data into a structured value
	Decode(data []byte) (*structpb.Value, error)

	// Encode serializes a structured value
	Encode(v *structpb.Value) ([]byte, error)

	// Name returns the codec name
	Name() string
}

// JSONCodec implements JSON encoding/decoding of structured values
type JSONCodec struct {
	marshal   protojson.MarshalOptions
	unmarshal protojson.UnmarshalOptions
}

// NewJSON returns the JSON codec.
func NewJSON() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Decode(data []byte) (*structpb.Value, error) {
	v := &structpb.Value{}
	if err := c.unmarshal.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return v, nil
}

func (c *JSONCodec) Encode(v *structpb.Value) ([]byte, error) {
	if v == nil || v.GetKind() == nil {
		return []byte("null"), nil
	}
	data, err := c.marshal.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode structured value: %w", err)
	}
	return data, nil
}

func (c *JSONCodec) Name() string {
	return "json"
}

var defaultCodec = NewJSON()

// Parse decodes JSON text with the default codec.
func Parse(data []byte) (*structpb.Value, error) {
	return defaultCodec.Decode(data)
}

// Serialize encodes v as JSON with the default codec.
func Serialize(v *structpb.Value) ([]byte, error) {
	return defaultCodec.Encode(v)
}
