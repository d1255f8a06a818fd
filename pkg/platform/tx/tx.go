package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Run executes fn inside a transaction placed on the context. Stores that use
// the context executor pattern join the same transaction, so every write in fn
// commits or rolls back as one unit.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	dbtx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(WithTx(ctx, dbtx)); err != nil {
		_ = dbtx.Rollback()
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Runner provides a transactional boundary for multi-write service
// operations. Implementations wrap a database transaction or, in-memory, a
// coarse lock.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sqlRunner struct {
	db *sql.DB
}

// SQL returns a Runner backed by database transactions.
func SQL(db *sql.DB) Runner {
	return &sqlRunner{db: db}
}

func (r *sqlRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, fn)
}

type serialRunner struct {
	mu sync.Mutex
}

// Serial returns a Runner that serializes write units behind one lock. It
// pairs with the in-memory stores in tests and local development, where map
// mutations inside fn are already individually safe and only the unit's
// atomicity against other units matters.
func Serial() Runner {
	return &serialRunner{}
}

func (r *serialRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
