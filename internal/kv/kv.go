package kv

import "context"

// RoDB is the read-only half of a typed, ordered key/value store: named
// tables, snapshot transactions, and cursors.
type RoDB interface {
	Close()
	BeginRo(ctx context.Context) (Tx, error)
	View(ctx context.Context, f func(tx Tx) error) error
}

// RwDB adds read-write transactions. At most one is ever open at a time;
// the underlying lmdb environment enforces this.
type RwDB interface {
	RoDB
	BeginRw(ctx context.Context) (RwTx, error)
	Update(ctx context.Context, f func(tx RwTx) error) error
}

// Tx is a read-only transaction: a point-in-time snapshot over every table.
type Tx interface {
	// Cursor opens a forward/reverse/seek cursor over table. Returns
	// ErrUnknownTable if table isn't registered.
	Cursor(table string) (Cursor, error)
	Commit() error
	Rollback()
}

// RwTx is a read-write transaction. Only one may be open per environment at
// a time.
type RwTx interface {
	Tx
	RwCursor(table string) (RwCursor, error)
}

// Cursor is a positioned, read-only handle over one table.
type Cursor interface {
	First() (k, v []byte, err error)
	Last() (k, v []byte, err error)
	Next() (k, v []byte, err error)
	Prev() (k, v []byte, err error)
	SeekExact(key []byte) (k, v []byte, err error)
	Close()
}

// RwCursor adds mutation. put/del take effect immediately within the
// owning RwTx but are only durable after the transaction commits.
type RwCursor interface {
	Cursor
	Put(k, v []byte) error
	Del() error
}
