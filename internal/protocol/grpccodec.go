// The StreamData messages are plain structs, not proto.Message, so grpc-go's
// built-in codec (which type-asserts proto.Message) cannot carry them.
// Rather than fabricate a .proto file to generate against, this registers
// the same CBOR codec internal/storage persists records with as a named
// grpc content subtype, the way grpc-go documents for non-protobuf payloads.
package protocol

import (
	"github.com/chainlayer/dna-go/internal/cbor"
	"google.golang.org/grpc/encoding"
)

// CodecName is the grpc content-subtype this package registers itself
// under ("application/grpc+cbor" on the wire).
const CodecName = "cbor"

func init() {
	encoding.RegisterCodec(cborCodec{})
}

// cborCodec adapts internal/cbor's Marshal/Unmarshal to grpc-go's
// encoding.Codec interface.
type cborCodec struct{}

func (cborCodec) Name() string { return CodecName }

func (cborCodec) Marshal(v interface{}) ([]byte, error) {
	var buf []byte
	if err := cbor.Marshal(&buf, v); err != nil {
		return nil, err
	}
	return buf, nil
}

func (cborCodec) Unmarshal(data []byte, v interface{}) error {
	return cbor.Unmarshal(data, v)
}
