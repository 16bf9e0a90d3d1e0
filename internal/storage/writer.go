package storage

import (
	"context"

	"github.com/chainlayer/dna-go/internal/bloom"
	"github.com/chainlayer/dna-go/internal/cbor"
	"github.com/chainlayer/dna-go/internal/kv"
	"github.com/chainlayer/dna-go/internal/types"
	log "github.com/inconshreveable/log15"
)

// Writer bundles cursors over the six tables under a single read-write
// transaction. Cursors are opened lazily on first use and all closed
// before the owning transaction commits or rolls back.
type Writer struct {
	s   *Storage
	tx  kv.RwTx
	cur map[string]kv.RwCursor

	// touched accumulates the idKey()s mutated in this transaction so the
	// record cache can be invalidated on a successful commit only; an
	// aborted writer must leave the cache untouched.
	touched [][]byte
}

// Begin opens a new write transaction bundling the writer's six cursors.
func (s *Storage) Begin(ctx context.Context) (*Writer, error) {
	tx, err := s.db.BeginRw(ctx)
	if err != nil {
		s.metrics.observeError(wrapIO(err))
		return nil, wrapIO(err)
	}
	return &Writer{s: s, tx: tx, cur: make(map[string]kv.RwCursor, 6)}, nil
}

func (w *Writer) cursor(table string) (kv.RwCursor, error) {
	if c, ok := w.cur[table]; ok {
		return c, nil
	}
	c, err := w.tx.RwCursor(table)
	if err != nil {
		return nil, wrapIO(err)
	}
	w.cur[table] = c
	return c, nil
}

func (w *Writer) closeCursors() {
	for _, c := range w.cur {
		c.Close()
	}
	w.cur = nil
}

// Commit closes all cursors and commits the transaction atomically. After
// Commit returns nil, every mutation accumulated on this Writer is visible
// to new Readers.
func (w *Writer) Commit() error {
	w.closeCursors()
	if err := w.tx.Commit(); err != nil {
		w.s.metrics.observeError(wrapIO(err))
		return wrapIO(err)
	}
	w.s.metrics.Commits.Inc()
	for _, key := range w.touched {
		w.s.cache.invalidate(key)
	}
	return nil
}

// Rollback discards every mutation accumulated on this Writer. Callers that
// simply drop a Writer without calling Commit leave the underlying
// transaction open; Rollback makes the discard explicit and observable via
// metrics.
func (w *Writer) Rollback() {
	w.closeCursors()
	w.tx.Rollback()
	w.s.metrics.Rollbacks.Inc()
}

func (w *Writer) markTouched(key []byte) {
	w.touched = append(w.touched, key)
}

// ExtendCanonicalChain upserts (id.Number, id.Hash) into CanonicalChain. If
// a different hash is already canonical at that height, it is silently
// overwritten; callers wanting strict reorg accounting must call
// RejectBlockFromCanonicalChain first.
func (w *Writer) ExtendCanonicalChain(id types.GlobalBlockId) error {
	c, err := w.cursor(kv.CanonicalChain)
	if err != nil {
		return err
	}
	hash := append([]byte(nil), id.Hash[:]...)
	if err := c.Put(numberKey(id.Number), hash); err != nil {
		return wrapIO(err)
	}
	return nil
}

// RejectBlockFromCanonicalChain is the reorg primitive: if
// CanonicalChain[id.Number] == id.Hash, deletes that entry and sets
// BlockStatus[id] = Rejected. Otherwise a no-op. The orphaned block's
// payload rows are left untouched so a future re-canonicalization can reuse
// them.
func (w *Writer) RejectBlockFromCanonicalChain(id types.GlobalBlockId) error {
	cc, err := w.cursor(kv.CanonicalChain)
	if err != nil {
		return err
	}
	_, v, err := cc.SeekExact(numberKey(id.Number))
	if err != nil {
		return wrapIO(err)
	}
	if v == nil || string(v) != string(id.Hash[:]) {
		return nil
	}
	if err := cc.Del(); err != nil {
		return wrapIO(err)
	}
	log.Info("storage: rejecting block from canonical chain", "id", id.String())
	return w.WriteStatus(id, types.BlockStatusRejected)
}

// WriteStatus upserts the BlockStatus at id.
func (w *Writer) WriteStatus(id types.GlobalBlockId, status types.BlockStatus) error {
	c, err := w.cursor(kv.BlockStatus)
	if err != nil {
		return err
	}
	var buf []byte
	if err := cbor.Marshal(&buf, status); err != nil {
		return wrapIO(err)
	}
	key := idKey(id)
	if err := c.Put(key, buf); err != nil {
		return wrapIO(err)
	}
	w.markTouched(key)
	return nil
}

// WriteHeader upserts the BlockHeader at id.
func (w *Writer) WriteHeader(id types.GlobalBlockId, header types.BlockHeader) error {
	c, err := w.cursor(kv.BlockHeader)
	if err != nil {
		return err
	}
	var buf []byte
	if err := cbor.Marshal(&buf, header); err != nil {
		return wrapIO(err)
	}
	key := idKey(id)
	if err := c.Put(key, buf); err != nil {
		return wrapIO(err)
	}
	w.markTouched(key)
	return nil
}

// WriteBody upserts the transaction list at id.
func (w *Writer) WriteBody(id types.GlobalBlockId, body types.BlockBody) error {
	c, err := w.cursor(kv.BlockBody)
	if err != nil {
		return err
	}
	var buf []byte
	if err := cbor.Marshal(&buf, body); err != nil {
		return wrapIO(err)
	}
	key := idKey(id)
	if err := c.Put(key, buf); err != nil {
		return wrapIO(err)
	}
	w.markTouched(key)
	return nil
}

// WriteStateUpdate upserts the StateUpdate at id.
func (w *Writer) WriteStateUpdate(id types.GlobalBlockId, update types.StateUpdate) error {
	c, err := w.cursor(kv.StateUpdate)
	if err != nil {
		return err
	}
	var buf []byte
	if err := cbor.Marshal(&buf, update); err != nil {
		return wrapIO(err)
	}
	key := idKey(id)
	if err := c.Put(key, buf); err != nil {
		return wrapIO(err)
	}
	w.markTouched(key)
	return nil
}

// WriteReceipts computes the per-block Bloom filter over receipts, wraps
// them together, and upserts at id.
func (w *Writer) WriteReceipts(id types.GlobalBlockId, receipts []types.TransactionReceipt) error {
	c, err := w.cursor(kv.BlockReceipts)
	if err != nil {
		return err
	}
	raw := bloom.BuildForReceipts(receipts).Raw()
	br := types.BlockReceipts{Receipts: receipts, Bloom: &raw}
	var buf []byte
	if err := cbor.Marshal(&buf, br); err != nil {
		return wrapIO(err)
	}
	key := idKey(id)
	if err := c.Put(key, buf); err != nil {
		return wrapIO(err)
	}
	w.markTouched(key)
	return nil
}
