package storage

import (
	"encoding/binary"

	"github.com/chainlayer/dna-go/internal/types"
)

// numberKey encodes a block number as a big-endian 8-byte key so
// CanonicalChain sorts numerically under the store's lexicographic byte
// ordering.
func numberKey(number uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, number)
	return buf
}

func decodeNumberKey(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errKeyLength(8, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// idKey encodes a GlobalBlockId as number||hash, keeping the same
// number-major ordering as numberKey for the five per-block tables.
func idKey(id types.GlobalBlockId) []byte {
	buf := make([]byte, 8+32)
	binary.BigEndian.PutUint64(buf[:8], id.Number)
	copy(buf[8:], id.Hash[:])
	return buf
}

func decodeIDKey(b []byte) (types.GlobalBlockId, error) {
	if len(b) != 8+32 {
		return types.GlobalBlockId{}, errKeyLength(8+32, len(b))
	}
	var hash [32]byte
	copy(hash[:], b[8:])
	return types.NewGlobalBlockId(binary.BigEndian.Uint64(b[:8]), hash), nil
}

func errKeyLength(want, got int) error {
	return wrapDecode(keyLengthError{want: want, got: got})
}

type keyLengthError struct{ want, got int }

func (e keyLengthError) Error() string {
	return "storage: malformed key length"
}
