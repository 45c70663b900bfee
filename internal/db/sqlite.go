package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLite is a local, file-backed Store.
type SQLite struct {
	records
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLite{db: db}
	s.records = records{d: sqliteDialect, c: sqlConn{q: db, db: db}}
	if err := s.ensureHistory(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLite) Close() {
	_ = s.db.Close()
}

// ListTables returns the user tables of the database.
func (s *SQLite) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, &ExternalCallError{Op: "list tables", Cause: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &ExternalCallError{Op: "list tables", Cause: err}
		}
		if !historyTables[name] {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &ExternalCallError{Op: "list tables", Cause: err}
	}
	return names, nil
}

// ApplySchema runs the SQLite-compatible subset of a Postgres migration in
// one transaction. Row-level security statements have no SQLite equivalent
// and are skipped.
func (s *SQLite) ApplySchema(ctx context.Context, migration string) error {
	return s.c.tx(ctx, func(c conn) error {
		for _, stmt := range SQLiteStatements(migration) {
			if _, err := c.exec(ctx, statement{sql: stmt}); err != nil {
				return &ExternalCallError{Op: "apply schema", Cause: fmt.Errorf("%s: %w", firstLine(stmt), err)}
			}
		}
		return nil
	})
}

var (
	rlsPattern          = regexp.MustCompile(`(?is)^(ALTER\s+TABLE\s+.*\s+(ENABLE|DISABLE|FORCE)\s+ROW\s+LEVEL\s+SECURITY|CREATE\s+POLICY\s|DROP\s+POLICY\s|DO\s+\$\$|GRANT\s|REVOKE\s|COMMENT\s+ON\s)`)
	uuidDefaultPattern  = regexp.MustCompile(`(?i)\s+DEFAULT\s+(gen_random_uuid|uuid_generate_v4)\(\)`)
	nowDefaultPattern   = regexp.MustCompile(`(?i)DEFAULT\s+(now\(\)|current_timestamp\(\))`)
	castPattern         = regexp.MustCompile(`::[a-z_]+(\[\])?`)
	schemaPrefixPattern = regexp.MustCompile(`(?i)\bpublic\.`)
)

// SQLiteStatements splits a Postgres migration into statements SQLite can run.
func SQLiteStatements(migration string) []string {
	var out []string
	for _, stmt := range splitStatements(migration) {
		if rlsPattern.MatchString(stmt) {
			continue
		}
		stmt = uuidDefaultPattern.ReplaceAllString(stmt, "")
		stmt = nowDefaultPattern.ReplaceAllString(stmt, "DEFAULT CURRENT_TIMESTAMP")
		stmt = castPattern.ReplaceAllString(stmt, "")
		stmt = schemaPrefixPattern.ReplaceAllString(stmt, "")
		out = append(out, stmt)
	}
	return out
}

// splitStatements splits SQL on semicolons outside quotes, comments and
// dollar-quoted blocks. Comment-only fragments are dropped.
func splitStatements(src string) []string {
	var (
		out    []string
		cur    strings.Builder
		quote  byte
		dollar bool
	)
	flush := func() {
		stmt := strings.TrimSpace(stripComments(cur.String()))
		if stmt != "" {
			out = append(out, stmt)
		}
		cur.Reset()
	}

	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case dollar:
			if strings.HasPrefix(src[i:], "$$") {
				dollar = false
				cur.WriteString("$$")
				i++
				continue
			}
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case strings.HasPrefix(src[i:], "$$"):
			dollar = true
			cur.WriteString("$$")
			i++
			continue
		case strings.HasPrefix(src[i:], "--"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			cur.WriteString(src[i : i+end])
			i += end - 1
			continue
		case ch == ';':
			flush()
			continue
		}
		cur.WriteByte(ch)
	}
	flush()
	return out
}

// stripComments removes whole-line "--" comments.
func stripComments(stmt string) string {
	var kept []string
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqlConn struct {
	q  sqlQuerier
	db *sql.DB
}

func (c sqlConn) query(ctx context.Context, st statement) ([]Row, error) {
	rows, err := c.q.QueryContext(ctx, st.sql, st.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (c sqlConn) exec(ctx context.Context, st statement) (int64, error) {
	res, err := c.q.ExecContext(ctx, st.sql, st.args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c sqlConn) tx(ctx context.Context, fn func(conn) error) error {
	if c.db == nil {
		return errors.New("nested transactions are not supported")
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlConn{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
