package storage

import (
	"context"
	"testing"

	"github.com/chainlayer/dna-go/internal/kv"
	"github.com/chainlayer/dna-go/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// newTestStorage opens an in-memory lmdb environment the way
// ethdb/memory_database.go's NewMemDatabase does, and wraps it as a
// Storage with its own Prometheus registry so successive tests don't
// collide on the default global registry.
func newTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()
	env := kv.NewLMDB().InMem().MustOpen(context.Background())
	s := Open(env, WithMetrics(prometheus.NewRegistry()))
	return s, func() { env.Close() }
}

func hashOf(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

func TestEmptyStore(t *testing.T) {
	s, done := newTestStorage(t)
	defer done()
	r := s.NewReader()
	ctx := context.Background()

	head, err := r.HighestAcceptedBlock(ctx)
	require.NoError(t, err)
	require.Nil(t, head)

	fin, err := r.HighestFinalizedBlock(ctx)
	require.NoError(t, err)
	require.Nil(t, fin)

	id, err := r.CanonicalBlockId(ctx, 0)
	require.NoError(t, err)
	require.Nil(t, id)
}

func TestSingleBlockHappyPath(t *testing.T) {
	s, done := newTestStorage(t)
	defer done()
	ctx := context.Background()

	id := types.NewGlobalBlockId(21600, hashOf(1))
	header := types.BlockHeader{Number: 21600}
	body := types.BlockBody{Transactions: []types.Transaction{{Hash: hashOf(2)}, {Hash: hashOf(3)}}}
	receipts := []types.TransactionReceipt{{TransactionHash: hashOf(2)}}

	w, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(id, header))
	require.NoError(t, w.WriteBody(id, body))
	require.NoError(t, w.WriteReceipts(id, receipts))
	require.NoError(t, w.WriteStatus(id, types.BlockStatusAcceptedOnL2))
	require.NoError(t, w.ExtendCanonicalChain(id))
	require.NoError(t, w.Commit())

	r := s.NewReader()
	got, err := r.CanonicalBlockId(ctx, 21600)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, id, *got)

	status, err := r.ReadStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, types.BlockStatusAcceptedOnL2, *status)

	gotBody, err := r.ReadBody(ctx, id)
	require.NoError(t, err)
	require.Len(t, gotBody, 2)

	gotReceipts, filter, err := r.ReadReceipts(ctx, id)
	require.NoError(t, err)
	require.Len(t, gotReceipts, 1)
	require.NotNil(t, filter)
}

func TestAtomicCommit(t *testing.T) {
	s, done := newTestStorage(t)
	defer done()
	ctx := context.Background()

	id := types.NewGlobalBlockId(5, hashOf(9))
	w, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(id, types.BlockHeader{Number: 5}))
	require.NoError(t, w.ExtendCanonicalChain(id))
	w.Rollback()

	r := s.NewReader()
	header, err := r.ReadHeader(ctx, id)
	require.NoError(t, err)
	require.Nil(t, header)

	canon, err := r.CanonicalBlockId(ctx, 5)
	require.NoError(t, err)
	require.Nil(t, canon)
}

func TestReorg(t *testing.T) {
	s, done := newTestStorage(t)
	defer done()
	ctx := context.Background()

	id := types.NewGlobalBlockId(21600, hashOf(1))
	header := types.BlockHeader{Number: 21600}

	w, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(id, header))
	require.NoError(t, w.WriteStatus(id, types.BlockStatusAcceptedOnL2))
	require.NoError(t, w.ExtendCanonicalChain(id))
	require.NoError(t, w.Commit())

	w2, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w2.RejectBlockFromCanonicalChain(id))
	require.NoError(t, w2.Commit())

	r := s.NewReader()
	canon, err := r.CanonicalBlockId(ctx, 21600)
	require.NoError(t, err)
	require.Nil(t, canon)

	status, err := r.ReadStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, types.BlockStatusRejected, *status)

	gotHeader, err := r.ReadHeader(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, gotHeader)
	require.Equal(t, header, *gotHeader)
}

func TestFinalize(t *testing.T) {
	s, done := newTestStorage(t)
	defer done()
	ctx := context.Background()

	id := types.NewGlobalBlockId(21600, hashOf(1))
	w, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(id, types.BlockHeader{Number: 21600}))
	require.NoError(t, w.WriteStatus(id, types.BlockStatusAcceptedOnL2))
	require.NoError(t, w.ExtendCanonicalChain(id))
	require.NoError(t, w.Commit())

	w2, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w2.WriteStatus(id, types.BlockStatusAcceptedOnL1))
	require.NoError(t, w2.Commit())

	r := s.NewReader()
	fin, err := r.HighestFinalizedBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, fin)
	require.Equal(t, id, *fin)
}

func TestTipMonotonicity(t *testing.T) {
	s, done := newTestStorage(t)
	defer done()
	ctx := context.Background()

	ids := []types.GlobalBlockId{
		types.NewGlobalBlockId(1, hashOf(1)),
		types.NewGlobalBlockId(2, hashOf(2)),
		types.NewGlobalBlockId(3, hashOf(3)),
	}
	for _, id := range ids {
		w, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, w.WriteStatus(id, types.BlockStatusPending))
		require.NoError(t, w.ExtendCanonicalChain(id))
		require.NoError(t, w.Commit())

		r := s.NewReader()
		head, err := r.HighestAcceptedBlock(ctx)
		require.NoError(t, err)
		require.NotNil(t, head)
		require.Equal(t, id, *head)
	}
}

func TestBloomOnSavedReceipts(t *testing.T) {
	s, done := newTestStorage(t)
	defer done()
	ctx := context.Background()

	addr := []byte("contract-A")
	key1 := []byte("key-1")
	key2 := []byte("key-2")
	id := types.NewGlobalBlockId(1, hashOf(1))
	receipts := []types.TransactionReceipt{
		{Events: []types.Event{{FromAddress: addr, Keys: [][]byte{key1, key2}}}},
	}

	w, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, w.WriteReceipts(id, receipts))
	require.NoError(t, w.Commit())

	r := s.NewReader()
	_, filter, err := r.ReadReceipts(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, filter)
	require.True(t, filter.Contains(addr))
	require.True(t, filter.Contains(key1))
	require.True(t, filter.Contains(key2))
}
