package v1

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformed is returned when a request document does not fit the
// expected shape.
var ErrMalformed = errors.New("malformed request document")

// Decode copies a Struct document into dst, a pointer to a JSON-tagged Go
// value. A nil document decodes as {}.
func Decode(in *structpb.Struct, dst any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Encode converts a JSON-tagged Go value into a Struct document.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// MustEncode is Encode for values that are known to be JSON objects, such as
// fixed request literals in tests and clients.
func MustEncode(v any) *structpb.Struct {
	s, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return s
}
