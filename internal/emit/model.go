package emit

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/planning"
	"github.com/jonathan/module-builder/internal/types"
)

// TenantColumns are the column names recognized as the tenant/owner scope,
// in order of preference.
var TenantColumns = []string{"organization_id", "tenant_id", "owner_id", "user_id"}

// DefaultTenantColumn is added to tables that declare none of TenantColumns.
const DefaultTenantColumn = "organization_id"

// Pagination limits baked into generated endpoints and the module host.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Table is a TableSpec resolved for emission.
type Table struct {
	Spec         types.TableSpec
	Name         string
	Entity       string
	Collection   string
	Hook         string
	Fields       []Field
	Constraints  []string
	TenantColumn string
	// Endpoint is the URL path the state hook calls.
	Endpoint string

	columnDDL []string
}

// Field returns the named field.
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name() == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKey returns the primary key column, defaulting to "id".
func (t *Table) PrimaryKey() string {
	for _, f := range t.Fields {
		if f.Column.PrimaryKey {
			return f.Name()
		}
	}
	return "id"
}

// StatusColumn returns "status" when the table has one, else "".
func (t *Table) StatusColumn() string {
	if _, ok := t.Field("status"); ok {
		return "status"
	}
	return ""
}

// SearchColumns returns the text columns used for free-text search.
func (t *Table) SearchColumns() []string {
	var out []string
	for _, f := range t.Fields {
		if f.Searchable() && f.Name() != t.TenantColumn && f.Name() != "status" {
			out = append(out, f.Name())
		}
	}
	return out
}

// ServerManaged returns the columns clients never send: the tenant column and
// primary keys or timestamps the store fills in.
func (t *Table) ServerManaged() []string {
	out := []string{t.TenantColumn}
	for _, f := range t.Fields {
		if f.Name() == t.TenantColumn {
			continue
		}
		if (f.Column.PrimaryKey && f.Column.HasDefault) || (f.Column.SQLType == types.SQLTypeTimestamp && f.Column.HasDefault) {
			out = append(out, f.Name())
		}
	}
	return out
}

// DDL returns the column and constraint lines of the CREATE TABLE statement.
func (t *Table) DDL() []string {
	return append(append([]string(nil), t.columnDDL...), t.Constraints...)
}

// NewTable resolves a TableSpec: columns are inferred, and a tenant column is
// added when none is declared.
func NewTable(spec types.TableSpec) (*Table, error) {
	t := &Table{
		Spec:       spec,
		Name:       spec.Name,
		Entity:     blueprint.EntityName(spec.Name),
		Collection: blueprint.CollectionName(spec.Name),
		Hook:       blueprint.HookName(spec.Name),
	}

	if len(spec.Fields) > 0 {
		for _, fs := range spec.Fields {
			col, err := blueprint.FromField(fs)
			if err := tolerateMissingType(err); err != nil {
				return nil, fmt.Errorf("failed to resolve table %s: %w", spec.Name, err)
			}
			t.Fields = append(t.Fields, Infer(col))
			t.columnDDL = append(t.columnDDL, fieldDDL(col, fs.References))
		}
	} else {
		for _, desc := range spec.Columns {
			desc = strings.TrimSpace(desc)
			if blueprint.IsTableConstraint(desc) {
				t.Constraints = append(t.Constraints, desc)
				continue
			}
			col, err := blueprint.ParseColumn(desc)
			var missing *blueprint.MissingTypeError
			switch {
			case errors.As(err, &missing):
				t.columnDDL = append(t.columnDDL, strings.TrimSpace(col.Name+" TEXT "+strings.TrimSpace(strings.TrimPrefix(desc, col.Name))))
			case err != nil:
				return nil, fmt.Errorf("failed to resolve table %s: %w", spec.Name, err)
			default:
				t.columnDDL = append(t.columnDDL, desc)
			}
			t.Fields = append(t.Fields, Infer(col))
		}
	}

	for _, name := range TenantColumns {
		if _, ok := t.Field(name); ok {
			t.TenantColumn = name
			break
		}
	}
	if t.TenantColumn == "" {
		col := types.ColumnSpec{Name: DefaultTenantColumn, SQLType: types.SQLTypeUUID, RawType: "UUID"}
		f := Infer(col)
		f.Injected = true
		t.Fields = append(t.Fields, f)
		t.columnDDL = append(t.columnDDL, DefaultTenantColumn+" UUID NOT NULL")
		t.TenantColumn = DefaultTenantColumn
	}
	return t, nil
}

func tolerateMissingType(err error) error {
	var missing *blueprint.MissingTypeError
	if errors.As(err, &missing) {
		return nil
	}
	return err
}

func fieldDDL(col types.ColumnSpec, references string) string {
	parts := []string{col.Name}
	if col.RawType != "" {
		parts = append(parts, col.RawType)
	} else {
		parts = append(parts, "TEXT")
	}
	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.HasDefault && col.Default != "" {
		parts = append(parts, "DEFAULT "+col.Default)
	}
	if references != "" {
		parts = append(parts, "REFERENCES "+references)
	}
	return strings.Join(parts, " ")
}

// Input is everything an emitter may consult. It is built once per
// generation and shared read-only by every emitter.
type Input struct {
	Blueprint   *types.Blueprint
	Plan        *types.ExecutionPlan
	Tables      []*Table
	GeneratedAt time.Time

	apiRoutes  map[string]types.APIRouteSpec
	components map[string]types.ComponentSpec
	pages      map[string]types.RouteSpec
	hooks      map[string]*Table
}

// NewInput resolves every table of the Blueprint and indexes the declared
// routes and components by the plan step names that produce them.
func NewInput(bp *types.Blueprint, plan *types.ExecutionPlan, generatedAt time.Time) (*Input, error) {
	in := &Input{
		Blueprint:   bp,
		Plan:        plan,
		GeneratedAt: generatedAt.UTC(),
		apiRoutes:   make(map[string]types.APIRouteSpec),
		components:  make(map[string]types.ComponentSpec),
		pages:       make(map[string]types.RouteSpec),
		hooks:       make(map[string]*Table),
	}
	for _, spec := range bp.Database.NewTables {
		t, err := NewTable(spec)
		if err != nil {
			return nil, err
		}
		in.Tables = append(in.Tables, t)
		in.hooks[planning.HookStepName(spec.Name)] = t
	}
	for _, r := range bp.APIRoutes {
		in.apiRoutes[planning.APIRouteStepName(r)] = r
	}
	for _, c := range bp.Components {
		in.components[planning.ComponentStepName(c)] = c
	}
	for _, r := range bp.Routes {
		in.pages[planning.PageStepName(r)] = r
	}

	for _, t := range in.Tables {
		t.Endpoint = in.defaultEndpoint(t)
	}
	for _, r := range bp.APIRoutes {
		if t := in.TableForRoute(r); t != nil && t.Endpoint == in.defaultEndpoint(t) {
			t.Endpoint = EndpointURL(r)
		}
	}
	return in, nil
}

func (in *Input) defaultEndpoint(t *Table) string {
	return path.Join("/api", in.Blueprint.ID, blueprint.ToKebabCase(t.Name))
}

// Header is the first line of every generated source file. It is the only
// line that varies between runs over an unchanged Blueprint.
func (in *Input) Header(comment string) string {
	return fmt.Sprintf("%s %s by module-builder from blueprint %s at %s",
		comment, GeneratedMarker, in.Blueprint.ID, in.GeneratedAt.Format(time.RFC3339))
}

// TypesImport is the import specifier of the generated data contracts.
func (in *Input) TypesImport() string {
	return "@/" + strings.TrimSuffix(planning.TypesPath(in.Blueprint), ".ts")
}

// TableForRoute resolves the table an API route serves: the declared table,
// else the longest table name contained in the route path, else the first table.
func (in *Input) TableForRoute(r types.APIRouteSpec) *Table {
	if len(in.Tables) == 0 {
		return nil
	}
	if r.Table != "" {
		for _, t := range in.Tables {
			if strings.EqualFold(t.Name, r.Table) {
				return t
			}
		}
	}
	flat := "_" + strings.NewReplacer("/", "_", "-", "_").Replace(strings.ToLower(r.Path)) + "_"
	var best *Table
	for _, t := range in.Tables {
		if strings.Contains(flat, "_"+t.Name+"_") && (best == nil || len(t.Name) > len(best.Name)) {
			best = t
		}
	}
	if best != nil {
		return best
	}
	segments := strings.Split(strings.Trim(r.Path, "/"), "/")
	last := strings.ToLower(segments[len(segments)-1])
	for _, t := range in.Tables {
		if strings.HasSuffix(t.Name, last) {
			return t
		}
	}
	return in.Tables[0]
}

// TableForComponent resolves the table a UI scaffold lists: the table whose
// entity, collection or trailing noun appears in the component name, else the
// first table.
func (in *Input) TableForComponent(name string) *Table {
	if len(in.Tables) == 0 {
		return nil
	}
	lower := strings.ToLower(name)
	candidates := append([]*Table(nil), in.Tables...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Collection) > len(candidates[j].Collection)
	})
	for _, t := range candidates {
		if strings.Contains(lower, strings.ToLower(t.Collection)) || strings.Contains(lower, strings.ToLower(t.Entity)) {
			return t
		}
	}
	for _, t := range candidates {
		words := strings.Split(t.Name, "_")
		if last := blueprint.Singularize(words[len(words)-1]); last != "" && strings.Contains(lower, last) {
			return t
		}
	}
	return in.Tables[0]
}

// EndpointURL is the public URL path of an API route.
func EndpointURL(r types.APIRouteSpec) string {
	p := strings.TrimPrefix(planning.APIRoutePath(r), "app")
	return strings.TrimSuffix(p, "/route.ts")
}
