package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced by repositories; services translate them into
// the user-facing error taxonomy.
var (
	ErrDuplicateActive   = errors.New("duplicate active transaction")
	ErrDuplicatePlate    = errors.New("license plate already registered")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrAccountNotActive  = errors.New("account not active")
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx. Repository
// methods that participate in the payment transaction accept an optional
// pgx.Tx and fall back to the pool when it is nil.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs a function inside a single database transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type txManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a pool-backed TxManager.
func NewTxManager(pool *pgxpool.Pool) TxManager {
	return &txManager{pool: pool}
}

// WithinTx begins a transaction, runs fn and commits; any error rolls back.
func (m *txManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func querier(pool *pgxpool.Pool, tx pgx.Tx) DBTX {
	if tx != nil {
		return tx
	}
	return pool
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
