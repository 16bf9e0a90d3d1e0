// Package bloom derives and restores the per-block Bloom filter over
// receipt event addresses and keys, and its persisted raw form.
package bloom

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/chainlayer/dna-go/internal/types"
)

// bitWidth is the fixed filter width used for per-block receipt Bloom
// filters.
const bitWidth = 256

// Filter is a double-SipHash-1-3 Bloom filter seeded by two independent key
// pairs, one per probe.
type Filter struct {
	bits    []byte
	nbits   uint64
	nhashes uint32
	keys    [2][2]uint64
}

// New builds an empty filter sized for an estimated item count. itemEstimate
// must be positive; callers computing it from a receipt count should add 1
// to avoid passing zero.
func New(itemEstimate int) *Filter {
	f := &Filter{
		nbits: bitWidth,
		bits:  make([]byte, (bitWidth+7)/8),
	}
	f.nhashes = optimalHashCount(bitWidth, itemEstimate)
	for i := range f.keys {
		f.keys[i][0] = randUint64()
		f.keys[i][1] = randUint64()
	}
	return f
}

// optimalHashCount picks a hash-function count minimizing false-positive
// rate for the given bit width and item estimate, floored at 1.
func optimalHashCount(nbits uint64, itemEstimate int) uint32 {
	if itemEstimate <= 0 {
		return 1
	}
	k := int(float64(nbits) / float64(itemEstimate) * 0.6931471805599453) // ln2
	if k < 1 {
		k = 1
	}
	return uint32(k)
}

func randUint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Set inserts item into the filter.
func (f *Filter) Set(item []byte) {
	for _, slot := range f.slots(item) {
		f.bits[slot/8] |= 1 << uint(slot%8)
	}
}

// Contains reports whether item may be in the filter (no false negatives,
// bounded false positives).
func (f *Filter) Contains(item []byte) bool {
	for _, slot := range f.slots(item) {
		if f.bits[slot/8]&(1<<uint(slot%8)) == 0 {
			return false
		}
	}
	return true
}

// slots yields the nhashes bit positions item maps to, derived from the two
// SipHash-1-3 keys via the classic double-hashing construction
// h_i = h1 + i*h2 (mod nbits).
func (f *Filter) slots(item []byte) []uint64 {
	h1 := sipHash13(f.keys[0][0], f.keys[0][1], item)
	h2 := sipHash13(f.keys[1][0], f.keys[1][1], item)
	out := make([]uint64, f.nhashes)
	for i := uint32(0); i < f.nhashes; i++ {
		out[i] = (h1 + uint64(i)*h2) % f.nbits
	}
	return out
}

// Raw serializes the filter to its persisted RawBloom form.
func (f *Filter) Raw() types.RawBloom {
	return types.RawBloom{
		Bytes:                 append([]byte(nil), f.bits...),
		BitmapBits:            f.nbits,
		NumberOfHashFunctions: f.nhashes,
		SipKeys:               f.keys,
	}
}

// FromRaw reconstructs a filter from its persisted form. It returns nil,
// false when raw.Bytes is empty.
func FromRaw(raw types.RawBloom) (*Filter, bool) {
	if len(raw.Bytes) == 0 {
		return nil, false
	}
	return &Filter{
		bits:    append([]byte(nil), raw.Bytes...),
		nbits:   raw.BitmapBits,
		nhashes: raw.NumberOfHashFunctions,
		keys:    raw.SipKeys,
	}, true
}

// BuildForReceipts builds the per-block filter over a receipt set following
// the population policy: for each receipt, for each event, insert
// from_address (if set) then each key.
func BuildForReceipts(receipts []types.TransactionReceipt) *Filter {
	estimate := len(receipts)*2 + 1
	f := New(estimate)
	for _, r := range receipts {
		for _, ev := range r.Events {
			if len(ev.FromAddress) > 0 {
				f.Set(ev.FromAddress)
			}
			for _, k := range ev.Keys {
				f.Set(k)
			}
		}
	}
	return f
}
