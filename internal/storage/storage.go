// Package storage is a transactional reader/writer over five per-block
// tables plus the canonical-chain mapping: headers, bodies, receipts,
// state updates, and block status, keyed by GlobalBlockId. Storage is a
// small handle shared across many concurrent Readers; mutations go through
// a single Writer bundling several cursors under one read-write
// transaction, committed atomically.
package storage

import (
	"context"
	"fmt"

	"github.com/chainlayer/dna-go/internal/bloom"
	"github.com/chainlayer/dna-go/internal/cbor"
	"github.com/chainlayer/dna-go/internal/kv"
	"github.com/chainlayer/dna-go/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Storage is the engine handle: cheap to share, many Readers may run
// concurrently against it.
type Storage struct {
	db      kv.RwDB
	metrics *Metrics
	cache   *recordCache
}

// Option configures a Storage handle at construction.
type Option func(*Storage)

// WithMetrics registers engine counters against reg instead of the default
// one returned by a bare Open.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Storage) { s.metrics = NewMetrics(reg) }
}

// WithRecordCache enables the fastcache-backed read-through cache, sized
// maxBytes per sub-cache (headers, receipts).
func WithRecordCache(maxBytes int) Option {
	return func(s *Storage) { s.cache = newRecordCache(maxBytes) }
}

// Open wraps an already-open kv.RwDB as a Storage handle.
func Open(db kv.RwDB, opts ...Option) *Storage {
	s := &Storage{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(prometheus.DefaultRegisterer)
	}
	return s
}

// Reader is a one-shot, read-only view over the store: every method opens
// a fresh read-only transaction and releases it before returning.
type Reader struct {
	s *Storage
}

func (s *Storage) NewReader() *Reader {
	return &Reader{s: s}
}

// HighestAcceptedBlock reads CanonicalChain.last(), returning nil iff the
// chain is empty.
func (r *Reader) HighestAcceptedBlock(ctx context.Context) (*types.GlobalBlockId, error) {
	var id *types.GlobalBlockId
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.CanonicalChain)
		if err != nil {
			return wrapIO(err)
		}
		defer c.Close()
		k, v, err := c.Last()
		if err != nil {
			return wrapIO(err)
		}
		if k == nil {
			return nil
		}
		number, err := decodeNumberKey(k)
		if err != nil {
			return err
		}
		var hash [32]byte
		if len(v) != len(hash) {
			return wrapDecode(fmt.Errorf("storage: CanonicalChain value has length %d, want %d", len(v), len(hash)))
		}
		copy(hash[:], v)
		got := types.NewGlobalBlockId(number, hash)
		id = &got
		return nil
	})
	r.s.metrics.observeError(err)
	return id, err
}

// HighestFinalizedBlock walks CanonicalChain backwards from the tip,
// cross-looking up BlockStatus for each entry, returning the first whose
// status is AcceptedOnL1.
func (r *Reader) HighestFinalizedBlock(ctx context.Context) (*types.GlobalBlockId, error) {
	var id *types.GlobalBlockId
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		cc, err := tx.Cursor(kv.CanonicalChain)
		if err != nil {
			return wrapIO(err)
		}
		defer cc.Close()
		status, err := tx.Cursor(kv.BlockStatus)
		if err != nil {
			return wrapIO(err)
		}
		defer status.Close()

		k, v, err := cc.Last()
		if err != nil {
			return wrapIO(err)
		}
		for k != nil {
			number, err := decodeNumberKey(k)
			if err != nil {
				return err
			}
			var hash [32]byte
			if len(v) != len(hash) {
				return wrapDecode(fmt.Errorf("storage: CanonicalChain value has length %d, want %d", len(v), len(hash)))
			}
			copy(hash[:], v)
			candidate := types.NewGlobalBlockId(number, hash)

			_, sv, err := status.SeekExact(idKey(candidate))
			if err != nil {
				return wrapIO(err)
			}
			if sv == nil {
				return inconsistent("storage: canonical entry %s has no BlockStatus row", candidate)
			}
			var st types.BlockStatus
			if err := cbor.Unmarshal(sv, &st); err != nil {
				return wrapDecode(err)
			}
			if st.IsFinalized() {
				id = &candidate
				return nil
			}

			k, v, err = cc.Prev()
			if err != nil {
				return wrapIO(err)
			}
		}
		return nil
	})
	r.s.metrics.observeError(err)
	return id, err
}

// CanonicalBlockId resolves the canonical GlobalBlockId at a height.
func (r *Reader) CanonicalBlockId(ctx context.Context, number uint64) (*types.GlobalBlockId, error) {
	var id *types.GlobalBlockId
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.CanonicalChain)
		if err != nil {
			return wrapIO(err)
		}
		defer c.Close()
		_, v, err := c.SeekExact(numberKey(number))
		if err != nil {
			return wrapIO(err)
		}
		if v == nil {
			return nil
		}
		var hash [32]byte
		if len(v) != len(hash) {
			return wrapDecode(fmt.Errorf("storage: CanonicalChain value has length %d, want %d", len(v), len(hash)))
		}
		copy(hash[:], v)
		got := types.NewGlobalBlockId(number, hash)
		id = &got
		return nil
	})
	r.s.metrics.observeError(err)
	return id, err
}

// ReadStatus returns the persisted BlockStatus for id, nil when absent.
func (r *Reader) ReadStatus(ctx context.Context, id types.GlobalBlockId) (*types.BlockStatus, error) {
	var out *types.BlockStatus
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.BlockStatus)
		if err != nil {
			return wrapIO(err)
		}
		defer c.Close()
		_, v, err := c.SeekExact(idKey(id))
		if err != nil {
			return wrapIO(err)
		}
		if v == nil {
			return nil
		}
		var st types.BlockStatus
		if err := cbor.Unmarshal(v, &st); err != nil {
			return wrapDecode(err)
		}
		out = &st
		return nil
	})
	r.s.metrics.observeError(err)
	return out, err
}

// ReadHeader returns the persisted BlockHeader for id, nil when absent.
func (r *Reader) ReadHeader(ctx context.Context, id types.GlobalBlockId) (*types.BlockHeader, error) {
	key := idKey(id)
	if cached, ok := r.s.cache.getHeader(key); ok {
		r.s.metrics.CacheHits.Inc()
		if len(cached) == 0 {
			return nil, nil
		}
		var h types.BlockHeader
		if err := cbor.Unmarshal(cached, &h); err != nil {
			return nil, wrapDecode(err)
		}
		return &h, nil
	}
	r.s.metrics.CacheMisses.Inc()

	var out *types.BlockHeader
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.BlockHeader)
		if err != nil {
			return wrapIO(err)
		}
		defer c.Close()
		_, v, err := c.SeekExact(key)
		if err != nil {
			return wrapIO(err)
		}
		r.s.cache.setHeader(key, v)
		if v == nil {
			return nil
		}
		var h types.BlockHeader
		if err := cbor.Unmarshal(v, &h); err != nil {
			return wrapDecode(err)
		}
		out = &h
		return nil
	})
	r.s.metrics.observeError(err)
	return out, err
}

// ReadBody returns the persisted transaction list for id, an empty slice
// when the body row is absent.
func (r *Reader) ReadBody(ctx context.Context, id types.GlobalBlockId) ([]types.Transaction, error) {
	var out []types.Transaction
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.BlockBody)
		if err != nil {
			return wrapIO(err)
		}
		defer c.Close()
		_, v, err := c.SeekExact(idKey(id))
		if err != nil {
			return wrapIO(err)
		}
		if v == nil {
			return nil
		}
		var body types.BlockBody
		if err := cbor.Unmarshal(v, &body); err != nil {
			return wrapDecode(err)
		}
		out = body.Transactions
		return nil
	})
	r.s.metrics.observeError(err)
	if out == nil {
		out = []types.Transaction{}
	}
	return out, err
}

// ReadReceipts returns the persisted receipts for id (empty slice when
// absent) plus the decoded Bloom filter, if one was stored.
func (r *Reader) ReadReceipts(ctx context.Context, id types.GlobalBlockId) ([]types.TransactionReceipt, *bloom.Filter, error) {
	key := idKey(id)
	if cached, ok := r.s.cache.getReceipts(key); ok {
		r.s.metrics.CacheHits.Inc()
		return decodeReceipts(cached)
	}
	r.s.metrics.CacheMisses.Inc()

	var raw []byte
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.BlockReceipts)
		if err != nil {
			return wrapIO(err)
		}
		defer c.Close()
		_, v, err := c.SeekExact(key)
		if err != nil {
			return wrapIO(err)
		}
		raw = v
		return nil
	})
	if err != nil {
		r.s.metrics.observeError(err)
		return nil, nil, err
	}
	r.s.cache.setReceipts(key, raw)
	receipts, filter, err := decodeReceipts(raw)
	r.s.metrics.observeError(err)
	return receipts, filter, err
}

// decodeReceipts turns a raw BlockReceipts row (nil when absent) into its
// receipt slice (never nil) and optional Bloom filter.
func decodeReceipts(raw []byte) ([]types.TransactionReceipt, *bloom.Filter, error) {
	if raw == nil {
		return []types.TransactionReceipt{}, nil, nil
	}
	var br types.BlockReceipts
	if err := cbor.Unmarshal(raw, &br); err != nil {
		return nil, nil, wrapDecode(err)
	}
	receipts := br.Receipts
	if receipts == nil {
		receipts = []types.TransactionReceipt{}
	}
	var filter *bloom.Filter
	if br.Bloom != nil {
		if f, ok := bloom.FromRaw(*br.Bloom); ok {
			filter = f
		}
	}
	return receipts, filter, nil
}

// ReadStateUpdate returns the persisted StateUpdate for id, nil when absent.
func (r *Reader) ReadStateUpdate(ctx context.Context, id types.GlobalBlockId) (*types.StateUpdate, error) {
	var out *types.StateUpdate
	err := r.s.db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.StateUpdate)
		if err != nil {
			return wrapIO(err)
		}
		defer c.Close()
		_, v, err := c.SeekExact(idKey(id))
		if err != nil {
			return wrapIO(err)
		}
		if v == nil {
			return nil
		}
		var su types.StateUpdate
		if err := cbor.Unmarshal(v, &su); err != nil {
			return wrapDecode(err)
		}
		out = &su
		return nil
	})
	r.s.metrics.observeError(err)
	return out, err
}
