package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jonathan/module-builder/internal/types"
)

// conn is the driver-specific part of a store: running statements and
// opening transactions.
type conn interface {
	query(ctx context.Context, st statement) ([]Row, error)
	exec(ctx context.Context, st statement) (int64, error)
	tx(ctx context.Context, fn func(conn) error) error
}

// records implements the tenant-scoped row operations and run history on top
// of a conn. Both stores embed it.
type records struct {
	d dialect
	c conn
}

// Select returns one page of the scope's rows, filtered by search and status.
func (r *records) Select(ctx context.Context, s Scope, opts ListOptions) (*Page, error) {
	if err := checkScope(s); err != nil {
		return nil, err
	}
	opts = opts.normalized()
	countSt, pageSt := r.d.selectPage(s, opts)

	counted, err := r.c.query(ctx, countSt)
	if err != nil {
		return nil, &ExternalCallError{Op: "select", Cause: err}
	}
	total := 0
	if len(counted) == 1 {
		total = toInt(counted[0]["total"])
	}

	rows, err := r.c.query(ctx, pageSt)
	if err != nil {
		return nil, &ExternalCallError{Op: "select", Cause: err}
	}
	if rows == nil {
		rows = []Row{}
	}
	return &Page{Rows: rows, Page: opts.Page, PageSize: opts.PageSize, Total: total}, nil
}

// Get returns one row of the scope.
func (r *records) Get(ctx context.Context, s Scope, id string) (Row, error) {
	if err := checkScope(s); err != nil {
		return nil, err
	}
	rows, err := r.c.query(ctx, r.d.selectOne(s, id))
	if err != nil {
		return nil, &ExternalCallError{Op: "select", Cause: err}
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Insert writes a row owned by the scope's tenant.
func (r *records) Insert(ctx context.Context, s Scope, row Row) (Row, error) {
	if err := checkScope(s); err != nil {
		return nil, err
	}
	st, err := r.d.insert(s, row)
	if err != nil {
		return nil, err
	}
	rows, err := r.c.query(ctx, st)
	if err != nil {
		return nil, &ExternalCallError{Op: "insert", Cause: err}
	}
	if len(rows) == 0 {
		return nil, &ExternalCallError{Op: "insert", Cause: fmt.Errorf("no row returned")}
	}
	return rows[0], nil
}

// Update patches one row of the scope.
func (r *records) Update(ctx context.Context, s Scope, id string, patch Row) (Row, error) {
	if err := checkScope(s); err != nil {
		return nil, err
	}
	st, err := r.d.update(s, id, patch)
	if err != nil {
		return nil, err
	}
	rows, err := r.c.query(ctx, st)
	if err != nil {
		return nil, &ExternalCallError{Op: "update", Cause: err}
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Delete removes one row of the scope.
func (r *records) Delete(ctx context.Context, s Scope, id string) error {
	if err := checkScope(s); err != nil {
		return err
	}
	n, err := r.c.exec(ctx, r.d.delete(s, id))
	if err != nil {
		return &ExternalCallError{Op: "delete", Cause: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const (
	runsTable   = "module_builder_runs"
	layersTable = "module_builder_run_layers"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// historyTables are excluded from ListTables.
var historyTables = map[string]bool{runsTable: true, layersTable: true}

func historySchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + runsTable + ` (
			id            TEXT PRIMARY KEY,
			blueprint_id  TEXT NOT NULL,
			policy        TEXT NOT NULL,
			success       BOOLEAN NOT NULL,
			aborted       BOOLEAN NOT NULL,
			checkpoint_id TEXT,
			started_at    TEXT NOT NULL,
			finished_at   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ` + layersTable + ` (
			run_id      TEXT NOT NULL REFERENCES ` + runsTable + `(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			layer       REAL NOT NULL,
			name        TEXT NOT NULL,
			success     BOOLEAN NOT NULL,
			duration_ms INTEGER NOT NULL,
			error       TEXT,
			PRIMARY KEY (run_id, position)
		)`,
	}
}

func (r *records) ensureHistory(ctx context.Context) error {
	for _, ddl := range historySchema() {
		if _, err := r.c.exec(ctx, statement{sql: ddl}); err != nil {
			return &ExternalCallError{Op: "create run history", Cause: err}
		}
	}
	return nil
}

// RecordRun stores a run summary and its layer results in one transaction.
func (r *records) RecordRun(ctx context.Context, report *types.RunReport) error {
	err := r.c.tx(ctx, func(c conn) error {
		b := &builder{d: r.d}
		st := statement{sql: fmt.Sprintf(
			`INSERT INTO %s (id, blueprint_id, policy, success, aborted, checkpoint_id, started_at, finished_at)
			 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
			runsTable,
			b.arg(report.RunID), b.arg(report.BlueprintID), b.arg(report.Policy), b.arg(report.Success),
			b.arg(report.Aborted), b.arg(report.CheckpointID),
			b.arg(report.StartedAt.UTC().Format(timeLayout)), b.arg(report.FinishedAt.UTC().Format(timeLayout)),
		)}
		st.args = b.args
		if _, err := c.exec(ctx, st); err != nil {
			return err
		}

		for i, l := range report.Layers {
			lb := &builder{d: r.d}
			lst := statement{sql: fmt.Sprintf(
				`INSERT INTO %s (run_id, position, layer, name, success, duration_ms, error)
				 VALUES (%s, %s, %s, %s, %s, %s, %s)`,
				layersTable,
				lb.arg(report.RunID), lb.arg(i), lb.arg(l.Layer), lb.arg(l.Name), lb.arg(l.Success), lb.arg(l.DurationMS), lb.arg(l.Error),
			)}
			lst.args = lb.args
			if _, err := c.exec(ctx, lst); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &ExternalCallError{Op: "record run", Cause: err}
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, without layers.
func (r *records) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	b := &builder{d: r.d}
	st := statement{sql: fmt.Sprintf(
		`SELECT id, blueprint_id, policy, success, aborted, checkpoint_id, started_at, finished_at
		 FROM %s ORDER BY started_at DESC LIMIT %s`, runsTable, b.arg(limit))}
	st.args = b.args

	rows, err := r.c.query(ctx, st)
	if err != nil {
		return nil, &ExternalCallError{Op: "list runs", Cause: err}
	}
	runs := make([]RunRecord, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, runFromRow(row))
	}
	return runs, nil
}

// GetRun returns one run with its layers.
func (r *records) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	b := &builder{d: r.d}
	st := statement{sql: fmt.Sprintf(
		`SELECT id, blueprint_id, policy, success, aborted, checkpoint_id, started_at, finished_at
		 FROM %s WHERE id = %s`, runsTable, b.arg(id))}
	st.args = b.args
	rows, err := r.c.query(ctx, st)
	if err != nil {
		return nil, &ExternalCallError{Op: "get run", Cause: err}
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	run := runFromRow(rows[0])

	lb := &builder{d: r.d}
	lst := statement{sql: fmt.Sprintf(
		`SELECT layer, name, success, duration_ms, error FROM %s WHERE run_id = %s ORDER BY position`,
		layersTable, lb.arg(id))}
	lst.args = lb.args
	layers, err := r.c.query(ctx, lst)
	if err != nil {
		return nil, &ExternalCallError{Op: "get run", Cause: err}
	}
	for _, l := range layers {
		run.Layers = append(run.Layers, LayerRecord{
			Layer:      toFloat(l["layer"]),
			Name:       toString(l["name"]),
			Success:    toBool(l["success"]),
			DurationMS: int64(toInt(l["duration_ms"])),
			Error:      toString(l["error"]),
		})
	}
	return &run, nil
}

func runFromRow(row Row) RunRecord {
	started, _ := time.Parse(timeLayout, toString(row["started_at"]))
	finished, _ := time.Parse(timeLayout, toString(row["finished_at"]))
	return RunRecord{
		ID:           toString(row["id"]),
		BlueprintID:  toString(row["blueprint_id"]),
		Policy:       toString(row["policy"]),
		Success:      toBool(row["success"]),
		Aborted:      toBool(row["aborted"]),
		CheckpointID: toString(row["checkpoint_id"]),
		StartedAt:    started,
		FinishedAt:   finished,
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	}
	return 0
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float32:
		return float64(t)
	case float64:
		return t
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}
