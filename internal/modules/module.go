// Package modules composes generated feature modules behind one capability
// interface. The Registry is built explicitly at the composition root.
package modules

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/emit"
	"github.com/jonathan/module-builder/internal/types"
)

// Module is the capability interface every feature module exposes. Every
// call is scoped by tenant.
type Module interface {
	Name() string
	List(ctx context.Context, tenant string, opts db.ListOptions) (*db.Page, error)
	Get(ctx context.Context, tenant, id string) (db.Row, error)
	Create(ctx context.Context, tenant string, row db.Row) (db.Row, error)
	Update(ctx context.Context, tenant, id string, patch db.Row) (db.Row, error)
	Delete(ctx context.Context, tenant, id string) error
}

// TableModule serves one Blueprint table through the data store.
type TableModule struct {
	name     string
	target   db.Target
	store    db.Store
	columns  map[string]bool
	required []string
}

var _ Module = (*TableModule)(nil)

// NewTableModule creates the module for a resolved table. Its name is the
// kebab-case table name.
func NewTableModule(store db.Store, table *emit.Table) *TableModule {
	m := &TableModule{
		name:    blueprint.ToKebabCase(table.Name),
		store:   store,
		columns: make(map[string]bool, len(table.Fields)),
		target: db.Target{
			Table:         table.Name,
			TenantColumn:  table.TenantColumn,
			PrimaryKey:    table.PrimaryKey(),
			SearchColumns: table.SearchColumns(),
			StatusColumn:  table.StatusColumn(),
		},
	}
	managed := make(map[string]bool)
	for _, c := range table.ServerManaged() {
		managed[c] = true
	}
	for _, f := range table.Fields {
		m.columns[f.Name()] = true
		if f.Required() && !managed[f.Name()] && f.Name() != m.target.PrimaryKey {
			m.required = append(m.required, f.Name())
		}
	}
	return m
}

// Name returns the module name used in routes.
func (m *TableModule) Name() string {
	return m.name
}

// Target returns the table and scoping columns the module serves.
func (m *TableModule) Target() db.Target {
	return m.target
}

func (m *TableModule) scope(tenant string) db.Scope {
	return db.Scope{Target: m.target, Tenant: tenant}
}

// List returns one page of the tenant's rows.
func (m *TableModule) List(ctx context.Context, tenant string, opts db.ListOptions) (*db.Page, error) {
	return m.store.Select(ctx, m.scope(tenant), opts)
}

// Get returns one of the tenant's rows.
func (m *TableModule) Get(ctx context.Context, tenant, id string) (db.Row, error) {
	return m.store.Get(ctx, m.scope(tenant), id)
}

// Create validates and inserts a row for the tenant.
func (m *TableModule) Create(ctx context.Context, tenant string, row db.Row) (db.Row, error) {
	if err := m.check(row, true); err != nil {
		return nil, err
	}
	return m.store.Insert(ctx, m.scope(tenant), row)
}

// Update validates and applies a partial update.
func (m *TableModule) Update(ctx context.Context, tenant, id string, patch db.Row) (db.Row, error) {
	if err := m.check(patch, false); err != nil {
		return nil, err
	}
	return m.store.Update(ctx, m.scope(tenant), id, patch)
}

// Delete removes one of the tenant's rows.
func (m *TableModule) Delete(ctx context.Context, tenant, id string) error {
	return m.store.Delete(ctx, m.scope(tenant), id)
}

func (m *TableModule) check(row db.Row, create bool) error {
	var problems []string
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !m.columns[k] {
			problems = append(problems, fmt.Sprintf("unknown column %q", k))
		}
	}
	if create {
		for _, k := range m.required {
			if v, ok := row[k]; !ok || v == nil {
				problems = append(problems, fmt.Sprintf("missing required column %q", k))
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Module: m.name, Problems: problems}
	}
	return nil
}

// Registry is the dispatch table of modules, keyed by name.
type Registry struct {
	modules map[string]Module
	names   []string
}

// NewRegistry builds a Registry from an explicit list of modules.
func NewRegistry(mods ...Module) (*Registry, error) {
	r := &Registry{modules: make(map[string]Module, len(mods))}
	for _, m := range mods {
		if _, dup := r.modules[m.Name()]; dup {
			return nil, &DuplicateModuleError{Name: m.Name()}
		}
		r.modules[m.Name()] = m
		r.names = append(r.names, m.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

// FromBlueprints builds one TableModule per table of each Blueprint.
func FromBlueprints(store db.Store, bps ...*types.Blueprint) (*Registry, error) {
	var mods []Module
	for _, bp := range bps {
		for _, spec := range bp.Database.NewTables {
			table, err := emit.NewTable(spec)
			if err != nil {
				return nil, fmt.Errorf("failed to build module for %s: %w", spec.Name, err)
			}
			mods = append(mods, NewTableModule(store, table))
		}
	}
	return NewRegistry(mods...)
}

// Get returns the named module.
func (r *Registry) Get(name string) (Module, error) {
	m, ok := r.modules[name]
	if !ok {
		return nil, &UnknownModuleError{Name: name}
	}
	return m, nil
}

// Names returns the registered module names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
