package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/foodgram-service/internal/repository"
)

// q is a minimal query executor implemented by both pgxpool.Pool and pgx.Tx.
type q interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

func getQ(ctx context.Context, pool *pgxpool.Pool) q {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return pool
}

// psql renders squirrel builders with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type txManager struct{ pool *pgxpool.Pool }

func NewTxManager(pool *pgxpool.Pool) repository.TxManager { return &txManager{pool: pool} }

func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	return m.run(ctx, pgx.TxOptions{}, fn)
}

func (m *txManager) WithinSnapshot(ctx context.Context, fn repository.TxFunc) error {
	return m.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (m *txManager) run(ctx context.Context, opts pgx.TxOptions, fn repository.TxFunc) error {
	// An outer transaction already defines the boundary.
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	if err := ensurePool(m.pool); err != nil {
		return err
	}

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return repository.MapPgError(err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return repository.MapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return repository.MapPgError(err)
	}
	return nil
}

var _ repository.TxManager = (*txManager)(nil)

func ensurePool(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pgx pool is nil")
	}
	return nil
}

// query runs a squirrel builder and hands every row to scan.
func query(ctx context.Context, pool *pgxpool.Pool, b sq.Sqlizer, scan func(pgx.Rows) error) error {
	if err := ensurePool(pool); err != nil {
		return err
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return err
	}
	rows, err := getQ(ctx, pool).Query(ctx, sql, args...)
	if err != nil {
		return repository.MapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return repository.MapPgError(err)
		}
	}
	return repository.MapPgError(rows.Err())
}

// queryRow runs a single-row squirrel builder; no rows maps to ErrNotFound.
func queryRow(ctx context.Context, pool *pgxpool.Pool, b sq.Sqlizer, dest ...any) error {
	if err := ensurePool(pool); err != nil {
		return err
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return err
	}
	if err := getQ(ctx, pool).QueryRow(ctx, sql, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return repository.MapPgError(err)
	}
	return nil
}

// exec runs a squirrel builder and returns the number of affected rows.
func exec(ctx context.Context, pool *pgxpool.Pool, b sq.Sqlizer) (int64, error) {
	if err := ensurePool(pool); err != nil {
		return 0, err
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := getQ(ctx, pool).Exec(ctx, sql, args...)
	if err != nil {
		return 0, repository.MapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func countRows(ctx context.Context, pool *pgxpool.Pool, b sq.SelectBuilder) (int, error) {
	var n int
	if err := queryRow(ctx, pool, b, &n); err != nil {
		return 0, err
	}
	return n, nil
}
