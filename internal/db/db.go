// Package db provides the external data store contract used by the pipeline
// and the module host: table listing, schema application, tenant-scoped row
// operations and run history. PostgreSQL (pgx) and SQLite (modernc) back it.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/module-builder/internal/types"
)

// Store is the narrow read/write contract of the external data store.
type Store interface {
	ListTables(ctx context.Context) ([]string, error)
	ApplySchema(ctx context.Context, sql string) error

	Select(ctx context.Context, s Scope, opts ListOptions) (*Page, error)
	Get(ctx context.Context, s Scope, id string) (Row, error)
	Insert(ctx context.Context, s Scope, row Row) (Row, error)
	Update(ctx context.Context, s Scope, id string, patch Row) (Row, error)
	Delete(ctx context.Context, s Scope, id string) error

	RecordRun(ctx context.Context, report *types.RunReport) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	Close()
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	records
	pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

// Connect establishes a connection pool to the database and makes sure the
// run history tables exist.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{pool: pool}
	db.records = records{d: postgresDialect, c: pgConn{q: pool, pool: pool}}
	if err := db.ensureHistory(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// ListTables returns the base tables of the public schema.
func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, &ExternalCallError{Op: "list tables", Cause: err}
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &ExternalCallError{Op: "list tables", Cause: err}
	}
	out := names[:0]
	for _, n := range names {
		if !historyTables[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

// ApplySchema runs a migration in one transaction. The migration is expected
// to be existence-guarded, so applying it again is a no-op.
func (db *DB) ApplySchema(ctx context.Context, sql string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return &ExternalCallError{Op: "apply schema", Cause: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, sql); err != nil {
		return &ExternalCallError{Op: "apply schema", Cause: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &ExternalCallError{Op: "apply schema", Cause: err}
	}
	return nil
}

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgConn struct {
	q    pgQuerier
	pool *pgxpool.Pool
}

func (c pgConn) query(ctx context.Context, st statement) ([]Row, error) {
	rows, err := c.q.Query(ctx, st.sql, st.args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(maps))
	for i, m := range maps {
		for k, v := range m {
			m[k] = normalizePG(v)
		}
		out[i] = Row(m)
	}
	return out, nil
}

func (c pgConn) exec(ctx context.Context, st statement) (int64, error) {
	tag, err := c.q.Exec(ctx, st.sql, st.args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c pgConn) tx(ctx context.Context, fn func(conn) error) error {
	if c.pool == nil {
		return errors.New("nested transactions are not supported")
	}
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		return fn(pgConn{q: tx})
	})
}

// normalizePG turns driver values into JSON-friendly ones.
func normalizePG(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String()
	case []byte:
		return string(t)
	}
	return v
}
