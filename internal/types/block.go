// Package types defines the chain data model persisted by the storage
// engine and carried over the stream protocol. The record shapes here are a
// minimal concrete stand-in for the external message-definition schema the
// spec treats as opaque: the engine only needs to persist and return these
// by GlobalBlockId.
package types

import (
	"encoding/hex"
	"fmt"
)

// GlobalBlockId uniquely identifies a block across reorg-competing chains at
// the same height. Ordering is by Number; Hash only disambiguates blocks
// that share a height.
type GlobalBlockId struct {
	Number uint64
	Hash   [32]byte
}

func NewGlobalBlockId(number uint64, hash [32]byte) GlobalBlockId {
	return GlobalBlockId{Number: number, Hash: hash}
}

func (id GlobalBlockId) String() string {
	return fmt.Sprintf("%d/%s", id.Number, hex.EncodeToString(id.Hash[:]))
}

// BlockStatus mirrors the finality lattice Pending < AcceptedOnL2 < AcceptedOnL1,
// with Rejected as the terminal reorged state.
type BlockStatus int32

const (
	BlockStatusUnspecified BlockStatus = iota
	BlockStatusPending
	BlockStatusAcceptedOnL2
	BlockStatusAcceptedOnL1
	BlockStatusRejected
)

func (s BlockStatus) IsFinalized() bool {
	return s == BlockStatusAcceptedOnL1
}

func (s BlockStatus) String() string {
	switch s {
	case BlockStatusPending:
		return "Pending"
	case BlockStatusAcceptedOnL2:
		return "AcceptedOnL2"
	case BlockStatusAcceptedOnL1:
		return "AcceptedOnL1"
	case BlockStatusRejected:
		return "Rejected"
	default:
		return "Unspecified"
	}
}

// BlockHeader is the opaque-in-the-spec per-block header record. Fields
// chosen here are the minimum needed to exercise storage and the stream
// protocol; downstream callers are not contractually bound to this shape.
type BlockHeader struct {
	ParentHash [32]byte
	Number     uint64
	Timestamp  uint64
	Sequencer  []byte
}

// Transaction is one chain transaction carried in a BlockBody.
type Transaction struct {
	Hash     [32]byte
	From     []byte
	To       []byte
	Calldata []byte
}

// Event is a single receipt-emitted event; FromAddress and Keys are the
// only fields the Bloom derivation in internal/bloom consumes.
type Event struct {
	FromAddress []byte
	Keys        [][]byte
	Data        [][]byte
}

// TransactionReceipt records the outcome of one transaction.
type TransactionReceipt struct {
	TransactionHash [32]byte
	TransactionIdx  uint32
	Events          []Event
}

// StateUpdate is the opaque per-block state-diff record.
type StateUpdate struct {
	StorageDiffs []StorageDiff
}

type StorageDiff struct {
	ContractAddress []byte
	Key             []byte
	Value           []byte
}

// BlockBody wraps the transaction list for storage, per spec.
type BlockBody struct {
	Transactions []Transaction
}

// BlockReceipts wraps the receipt list plus an optional serialized Bloom,
// per spec. The storage writer always sets Bloom, even when no events were
// observed for the block.
type BlockReceipts struct {
	Receipts []TransactionReceipt
	Bloom    *RawBloom
}

// RawBloom is the persisted form of a Bloom filter: raw bitmap bytes, total
// bit count, hash-function count, and the two SipHash key pairs used to
// build it. Bytes empty means "no bloom" on reconstruction.
type RawBloom struct {
	Bytes                 []byte
	BitmapBits            uint64
	NumberOfHashFunctions uint32
	SipKeys               [2][2]uint64
}
