package bloom

import (
	"testing"

	"github.com/chainlayer/dna-go/internal/types"
)

func TestRoundTrip(t *testing.T) {
	addr := []byte("contract-address-A")
	key1 := []byte("event-key-1")
	key2 := []byte("event-key-2")

	receipts := []types.TransactionReceipt{
		{
			Events: []types.Event{
				{FromAddress: addr, Keys: [][]byte{key1, key2}},
			},
		},
	}

	built := BuildForReceipts(receipts)
	raw := built.Raw()

	restored, ok := FromRaw(raw)
	if !ok {
		t.Fatal("expected restored filter, got none")
	}

	for _, item := range [][]byte{addr, key1, key2} {
		if !restored.Contains(item) {
			t.Errorf("restored filter does not contain %q", item)
		}
	}
}

func TestFromRawEmptyBytes(t *testing.T) {
	_, ok := FromRaw(types.RawBloom{})
	if ok {
		t.Fatal("expected no filter for empty bytes")
	}
}

func TestNoEventsProducesEmptyBloom(t *testing.T) {
	f := BuildForReceipts([]types.TransactionReceipt{{}})
	raw := f.Raw()
	if len(raw.Bytes) == 0 {
		t.Fatal("expected a non-empty bitmap buffer even with zero insertions")
	}
}
