package bloom

import "math/bits"

// sipHash13 computes SipHash-1-3 (1 compression round, 3 finalization
// rounds) of data under key (k0, k1). The reduced round count trades
// cryptographic strength for speed; this is fine here since the filter only
// needs a fast, well-distributed, key-seedable hash, not collision
// resistance.
func sipHash13(k0, k1 uint64, data []byte) uint64 {
	v0 := k0 ^ 0x736f6d6570736575
	v1 := k1 ^ 0x646f72616e646f6d
	v2 := k0 ^ 0x6c7967656e657261
	v3 := k1 ^ 0x7465646279746573

	round := func() {
		v0 += v1
		v1 = bits.RotateLeft64(v1, 13)
		v1 ^= v0
		v0 = bits.RotateLeft64(v0, 32)
		v2 += v3
		v3 = bits.RotateLeft64(v3, 16)
		v3 ^= v2
		v0 += v3
		v3 = bits.RotateLeft64(v3, 21)
		v3 ^= v0
		v2 += v1
		v1 = bits.RotateLeft64(v1, 17)
		v1 ^= v2
		v2 = bits.RotateLeft64(v2, 32)
	}

	length := len(data)
	end := length - (length % 8)
	for i := 0; i < end; i += 8 {
		m := le64(data[i : i+8])
		v3 ^= m
		round() // c = 1 compression round
		v0 ^= m
	}

	var last [8]byte
	copy(last[:], data[end:])
	last[7] = byte(length)
	m := le64(last[:])
	v3 ^= m
	round()
	v0 ^= m

	v2 ^= 0xff
	round()
	round()
	round() // d = 3 finalization rounds

	return v0 ^ v1 ^ v2 ^ v3
}

func le64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
