package db

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return &InvalidIdentifierError{Name: name}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

// dialect captures the SQL differences between the supported stores.
type dialect struct {
	name        string
	placeholder func(n int) string
	like        string
}

var (
	postgresDialect = dialect{name: "postgres", placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }, like: "ILIKE"}
	sqliteDialect   = dialect{name: "sqlite", placeholder: func(int) string { return "?" }, like: "LIKE"}
)

type statement struct {
	sql  string
	args []any
}

type builder struct {
	d    dialect
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, bindValue(v))
	return b.d.placeholder(len(b.args))
}

// bindValue encodes maps and slices as JSON text so both drivers accept them.
func bindValue(v any) any {
	switch v.(type) {
	case map[string]any, []any, Row:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(data)
	}
	return v
}

// checkScope validates identifiers and refuses unscoped access.
func checkScope(s Scope) error {
	if strings.TrimSpace(s.Tenant) == "" {
		return ErrMissingTenant
	}
	names := append([]string{s.Table, s.TenantColumn, s.PrimaryKey}, s.SearchColumns...)
	if s.StatusColumn != "" {
		names = append(names, s.StatusColumn)
	}
	for _, n := range names {
		if err := checkIdentifier(n); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) scopeWhere(s Scope) string {
	return fmt.Sprintf("%s = %s", quoteIdent(s.TenantColumn), b.arg(s.Tenant))
}

func (d dialect) selectPage(s Scope, o ListOptions) (count, page statement) {
	build := func() (*builder, string) {
		b := &builder{d: d}
		where := []string{b.scopeWhere(s)}
		if search := strings.TrimSpace(o.Search); search != "" && len(s.SearchColumns) > 0 {
			var ors []string
			for _, c := range s.SearchColumns {
				ors = append(ors, fmt.Sprintf("%s %s %s", quoteIdent(c), d.like, b.arg("%"+search+"%")))
			}
			where = append(where, "("+strings.Join(ors, " OR ")+")")
		}
		if o.Status != "" && s.StatusColumn != "" {
			where = append(where, fmt.Sprintf("%s = %s", quoteIdent(s.StatusColumn), b.arg(o.Status)))
		}
		return b, strings.Join(where, " AND ")
	}

	cb, where := build()
	count = statement{sql: fmt.Sprintf("SELECT COUNT(*) AS total FROM %s WHERE %s", quoteIdent(s.Table), where), args: cb.args}

	pb, where := build()
	limit := pb.arg(o.PageSize)
	offset := pb.arg((o.Page - 1) * o.PageSize)
	page = statement{
		sql: fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
			quoteIdent(s.Table), where, quoteIdent(s.PrimaryKey), limit, offset),
		args: pb.args,
	}
	return count, page
}

func (d dialect) selectOne(s Scope, id string) statement {
	b := &builder{d: d}
	where := b.scopeWhere(s)
	return statement{
		sql:  fmt.Sprintf("SELECT * FROM %s WHERE %s AND %s = %s", quoteIdent(s.Table), where, quoteIdent(s.PrimaryKey), b.arg(id)),
		args: b.args,
	}
}

// insert always writes the scope's tenant and fills a missing primary key
// with a new UUID.
func (d dialect) insert(s Scope, row Row) (statement, error) {
	values := make(Row, len(row)+2)
	for k, v := range row {
		values[k] = v
	}
	values[s.TenantColumn] = s.Tenant
	if v, ok := values[s.PrimaryKey]; !ok || v == nil || v == "" {
		values[s.PrimaryKey] = uuid.NewString()
	}

	cols, err := sortedColumns(values)
	if err != nil {
		return statement{}, err
	}
	b := &builder{d: d}
	quoted := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		params[i] = b.arg(values[c])
	}
	return statement{
		sql: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			quoteIdent(s.Table), strings.Join(quoted, ", "), strings.Join(params, ", ")),
		args: b.args,
	}, nil
}

// update never rewrites the tenant or primary key columns.
func (d dialect) update(s Scope, id string, patch Row) (statement, error) {
	values := make(Row, len(patch))
	for k, v := range patch {
		if k != s.TenantColumn && k != s.PrimaryKey {
			values[k] = v
		}
	}
	if len(values) == 0 {
		return statement{}, ErrEmptyUpdate
	}
	cols, err := sortedColumns(values)
	if err != nil {
		return statement{}, err
	}
	b := &builder{d: d}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = %s", quoteIdent(c), b.arg(values[c]))
	}
	where := b.scopeWhere(s)
	return statement{
		sql: fmt.Sprintf("UPDATE %s SET %s WHERE %s AND %s = %s RETURNING *",
			quoteIdent(s.Table), strings.Join(sets, ", "), where, quoteIdent(s.PrimaryKey), b.arg(id)),
		args: b.args,
	}, nil
}

func (d dialect) delete(s Scope, id string) statement {
	b := &builder{d: d}
	where := b.scopeWhere(s)
	return statement{
		sql:  fmt.Sprintf("DELETE FROM %s WHERE %s AND %s = %s", quoteIdent(s.Table), where, quoteIdent(s.PrimaryKey), b.arg(id)),
		args: b.args,
	}
}

func sortedColumns(values Row) ([]string, error) {
	cols := make([]string, 0, len(values))
	for k := range values {
		if err := checkIdentifier(k); err != nil {
			return nil, err
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, nil
}
