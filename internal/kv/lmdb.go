package kv

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ledgerwatch/lmdb-go/lmdb"
	log "github.com/inconshreveable/log15"
)

// Builder is a fluent lmdb environment constructor.
type Builder struct {
	path     string
	inMem    bool
	mapSize  int64
	readOnly bool
}

func NewLMDB() *Builder {
	return &Builder{mapSize: 1 << 30} // 1GiB default map size
}

func (b *Builder) Path(path string) *Builder {
	b.path = path
	return b
}

// InMem backs the environment by a throwaway temp directory. lmdb itself
// always mmaps a file, so "in memory" here means a scratch directory
// removed on Close, good only for the lifetime of the process that opened
// it.
func (b *Builder) InMem() *Builder {
	b.inMem = true
	return b
}

func (b *Builder) MapSize(size int64) *Builder {
	b.mapSize = size
	return b
}

func (b *Builder) ReadOnly() *Builder {
	b.readOnly = true
	return b
}

func (b *Builder) Open(ctx context.Context) (*Env, error) {
	path := b.path
	if b.inMem {
		dir, err := os.MkdirTemp("", "chaindna-lmdb-")
		if err != nil {
			return nil, fmt.Errorf("kv: create scratch dir: %w", err)
		}
		path = dir
	}
	if path == "" {
		return nil, errors.New("kv: Path or InMem must be set")
	}

	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, err
	}
	if err := env.SetMaxDBs(len(Tables)); err != nil {
		return nil, err
	}
	if err := env.SetMapSize(b.mapSize); err != nil {
		return nil, err
	}

	flags := uint(0)
	if b.readOnly {
		flags |= lmdb.Readonly
	}
	if err := env.Open(path, flags, 0644); err != nil {
		return nil, err
	}

	e := &Env{env: env, path: path, inMem: b.inMem}
	if err := e.createTables(); err != nil {
		env.Close()
		return nil, err
	}
	log.Info("kv: lmdb environment opened", "path", path, "inMem", b.inMem)
	return e, nil
}

func (b *Builder) MustOpen(ctx context.Context) *Env {
	env, err := b.Open(ctx)
	if err != nil {
		panic(err)
	}
	return env
}

// Env is the RwDB implementation backed by a single lmdb environment,
// restricted to the six tables in Tables.
type Env struct {
	env   *lmdb.Env
	path  string
	inMem bool
	dbis  map[string]lmdb.DBI
}

var _ RwDB = (*Env)(nil)

func (e *Env) createTables() error {
	e.dbis = make(map[string]lmdb.DBI, len(Tables))
	return e.env.Update(func(txn *lmdb.Txn) error {
		for _, name := range Tables {
			flags := uint(lmdb.Create)
			if DefaultTablesCfg[name]&DupSort != 0 {
				flags |= lmdb.DupSort
			}
			dbi, err := txn.OpenDBI(name, flags)
			if err != nil {
				return fmt.Errorf("kv: open table %s: %w", name, err)
			}
			e.dbis[name] = dbi
		}
		return nil
	})
}

func (e *Env) Close() {
	e.env.Close()
	if e.inMem {
		os.RemoveAll(e.path)
	}
}

func (e *Env) BeginRo(ctx context.Context) (Tx, error) {
	txn, err := e.env.BeginTxn(nil, lmdb.Readonly)
	if err != nil {
		return nil, err
	}
	return &lmdbTx{env: e, txn: txn}, nil
}

func (e *Env) BeginRw(ctx context.Context) (RwTx, error) {
	txn, err := e.env.BeginTxn(nil, 0)
	if err != nil {
		return nil, err
	}
	return &lmdbTx{env: e, txn: txn, rw: true}, nil
}

func (e *Env) View(ctx context.Context, f func(tx Tx) error) error {
	tx, err := e.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (e *Env) Update(ctx context.Context, f func(tx RwTx) error) error {
	tx, err := e.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type lmdbTx struct {
	env *Env
	txn *lmdb.Txn
	rw  bool
	// cursors opened against this tx; must be closed before commit/abort.
	cursors []*lmdb.Cursor
}

func (t *lmdbTx) dbi(table string) (lmdb.DBI, error) {
	dbi, ok := t.env.dbis[table]
	if !ok {
		return 0, ErrUnknownTable
	}
	return dbi, nil
}

func (t *lmdbTx) Cursor(table string) (Cursor, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return nil, err
	}
	c, err := t.txn.OpenCursor(dbi)
	if err != nil {
		return nil, err
	}
	t.cursors = append(t.cursors, c)
	return &lmdbCursor{c: c}, nil
}

func (t *lmdbTx) RwCursor(table string) (RwCursor, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return nil, err
	}
	c, err := t.txn.OpenCursor(dbi)
	if err != nil {
		return nil, err
	}
	t.cursors = append(t.cursors, c)
	return &lmdbCursor{c: c}, nil
}

func (t *lmdbTx) closeCursors() {
	for _, c := range t.cursors {
		c.Close()
	}
	t.cursors = nil
}

func (t *lmdbTx) Commit() error {
	t.closeCursors()
	return t.txn.Commit()
}

func (t *lmdbTx) Rollback() {
	t.closeCursors()
	t.txn.Abort()
}

type lmdbCursor struct {
	c *lmdb.Cursor
}

func (c *lmdbCursor) First() ([]byte, []byte, error) {
	k, v, err := c.c.Get(nil, nil, lmdb.First)
	return notFoundAsNil(k, v, err)
}

func (c *lmdbCursor) Last() ([]byte, []byte, error) {
	k, v, err := c.c.Get(nil, nil, lmdb.Last)
	return notFoundAsNil(k, v, err)
}

func (c *lmdbCursor) Next() ([]byte, []byte, error) {
	k, v, err := c.c.Get(nil, nil, lmdb.Next)
	return notFoundAsNil(k, v, err)
}

func (c *lmdbCursor) Prev() ([]byte, []byte, error) {
	k, v, err := c.c.Get(nil, nil, lmdb.Prev)
	return notFoundAsNil(k, v, err)
}

func (c *lmdbCursor) SeekExact(key []byte) ([]byte, []byte, error) {
	k, v, err := c.c.Get(key, nil, lmdb.Set)
	return notFoundAsNil(k, v, err)
}

func (c *lmdbCursor) Put(k, v []byte) error {
	return c.c.Put(k, v, 0)
}

func (c *lmdbCursor) Del() error {
	return c.c.Del(0)
}

func (c *lmdbCursor) Close() {
	// closed in bulk by lmdbTx.closeCursors before commit/abort; Close here
	// is a no-op guard for callers that close defensively per-cursor.
}

// notFoundAsNil turns lmdb.NotFound into (nil, nil, nil) so callers can
// treat "absent" uniformly with Go's zero value instead of matching on a
// store-specific sentinel at every call site.
func notFoundAsNil(k, v []byte, err error) ([]byte, []byte, error) {
	if lmdb.IsNotFound(err) {
		return nil, nil, nil
	}
	return k, v, err
}
