package codec

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Name is the gRPC content subtype under which the codec is registered.
// Clients select it with grpc.CallContentSubtype(codec.Name).
const Name = "cbor"

// GRPC adapts Marshal and Unmarshal to encoding.Codec.
type GRPC struct{}

func (GRPC) Marshal(v any) ([]byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal %T: %w", v, err)
	}
	return b, nil
}

func (GRPC) Unmarshal(data []byte, v any) error {
	if err := Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor unmarshal %T: %w", v, err)
	}
	return nil
}

func (GRPC) Name() string { return Name }

func init() {
	encoding.RegisterCodec(GRPC{})
}
