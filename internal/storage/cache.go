package storage

import "github.com/VictoriaMetrics/fastcache"

// recordCache is an optional read-through cache of header/receipt bytes in
// front of the Reader. A nil *recordCache disables caching entirely.
type recordCache struct {
	headers  *fastcache.Cache
	receipts *fastcache.Cache
}

// newRecordCache builds a cache pair each sized maxBytes. Passing maxBytes
// <= 0 disables caching; newRecordCache then returns nil.
func newRecordCache(maxBytes int) *recordCache {
	if maxBytes <= 0 {
		return nil
	}
	return &recordCache{
		headers:  fastcache.New(maxBytes),
		receipts: fastcache.New(maxBytes),
	}
}

func (c *recordCache) getHeader(key []byte) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.headers.HasGet(nil, key)
}

func (c *recordCache) setHeader(key, val []byte) {
	if c == nil {
		return
	}
	c.headers.Set(key, val)
}

func (c *recordCache) getReceipts(key []byte) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.receipts.HasGet(nil, key)
}

func (c *recordCache) setReceipts(key, val []byte) {
	if c == nil {
		return
	}
	c.receipts.Set(key, val)
}

// invalidate drops any cached entry for id, called after a writer commits
// any mutation touching id. The cache must never answer with state older
// than the last successful commit.
func (c *recordCache) invalidate(key []byte) {
	if c == nil {
		return
	}
	c.headers.Del(key)
	c.receipts.Del(key)
}
