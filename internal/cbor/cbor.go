// Package cbor is a thin wrapper around ugorji/go/codec's CBOR handle, used
// to encode and decode block records on disk and on the wire.
package cbor

import (
	"github.com/ugorji/go/codec"
)

var handle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.StructToArray = true
	return h
}()

// Marshal encodes v into buf, reusing buf's backing array where it has
// enough capacity.
func Marshal(buf *[]byte, v interface{}) error {
	*buf = (*buf)[:0]
	enc := codec.NewEncoderBytes(buf, handle)
	return enc.Encode(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(data, handle)
	return dec.Decode(v)
}
