package protocol

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func grpcUnimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

// Encodable is implemented by any Filter or Data payload type the client
// session carries; the session itself never knows anything about the
// payload beyond this one method.
type Encodable interface {
	Encode() ([]byte, error)
}

// Decodable is the inbound counterpart of Encodable. Decode populates the
// receiver in place rather than allocating a new value.
type Decodable interface {
	Decode([]byte) error
}

// EncodeFilter turns a Filter payload into the opaque bytes carried on
// StreamDataRequest.Filter.
func EncodeFilter(f Encodable) ([]byte, error) {
	return f.Encode()
}

// DecodeElement decodes one batch element's opaque bytes into a
// caller-supplied Data payload. zero is decoded in place; only the decode
// error is returned.
func DecodeElement(zero Decodable, raw []byte) error {
	return zero.Decode(raw)
}
