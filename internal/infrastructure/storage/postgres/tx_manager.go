package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"librepos/internal/core/tx"
	"librepos/pkg/logger"
)

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// txKey is the context key for the active transaction.
type txKey struct{}

// Executor abstracts pgx query execution; both pgx.Tx and
// *pgxpool.Pool satisfy it.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager manages database transactions by placing the active pgx.Tx
// in the context, so repositories transparently join an ambient
// transaction when one is open.
type TxManager struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
	tracer           trace.Tracer
}

// TxManagerOption configures a TxManager.
type TxManagerOption func(*TxManager)

// WithStatementTimeout sets a per-transaction statement timeout.
func WithStatementTimeout(d time.Duration) TxManagerOption {
	return func(m *TxManager) {
		m.statementTimeout = d
	}
}

// NewTxManager creates a transaction manager over the given pool.
func NewTxManager(pool *pgxpool.Pool, opts ...TxManagerOption) *TxManager {
	m := &TxManager{
		pool:             pool,
		statementTimeout: 30 * time.Second,
		tracer:           otel.Tracer("librepos/storage/postgres"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunInTransaction executes fn inside a read-write transaction. If the
// context already carries an open transaction, fn runs within it and
// commit/rollback is left to the outer call.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// ReadOnly executes fn inside a read-only transaction.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly}, fn)
}

func (m *TxManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	// Nested call: join the ambient transaction.
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	ctx, span := m.tracer.Start(ctx, "postgres.transaction",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.tx.access_mode", string(opts.AccessMode)),
		),
	)
	defer span.End()

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	if m.statementTimeout > 0 {
		timeout := fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", m.statementTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, timeout); err != nil {
			_ = tx.Rollback(ctx)
			span.RecordError(err)
			return fmt.Errorf("set statement timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				logger.Error(ctx, "rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		span.RecordError(err)
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			logger.Error(ctx, "transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetQuerier returns the active transaction from the context, or the
// pool when no transaction is open. Repositories route all their
// queries through this so writes made inside RunInTransaction see a
// single consistent snapshot.
func (m *TxManager) GetQuerier(ctx context.Context) Executor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return m.pool
}
