// Package types provides the data model shared by every layer of the module builder:
// Blueprints, project inventories, reports, plans, checkpoints and layer results.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Blueprint is the declarative description of a feature module to scaffold.
// It is decoded once at pipeline start and treated as read-only afterwards.
type Blueprint struct {
	ID               string            `json:"id" yaml:"id" validate:"omitempty,slug"`
	Name             string            `json:"name" yaml:"name"`
	Description      string            `json:"description" yaml:"description"`
	ValueProposition string            `json:"vpu,omitempty" yaml:"vpu,omitempty"`
	TargetAudience   string            `json:"target_audience,omitempty" yaml:"target_audience,omitempty"`
	Pricing          any               `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	Database         DatabaseSpec      `json:"database" yaml:"database"`
	Routes           []RouteSpec       `json:"routes,omitempty" yaml:"routes,omitempty" validate:"dive"`
	Components       []ComponentSpec   `json:"components,omitempty" yaml:"components,omitempty" validate:"dive"`
	APIRoutes        []APIRouteSpec    `json:"api_routes,omitempty" yaml:"api_routes,omitempty" validate:"dive"`
	ExternalAPIs     []ExternalAPISpec `json:"external_apis,omitempty" yaml:"external_apis,omitempty"`
}

// DatabaseSpec holds the tables a Blueprint introduces.
type DatabaseSpec struct {
	NewTables []TableSpec `json:"new_tables" yaml:"new_tables" validate:"dive"`
}

// TableSpec describes one new table. Columns carries free-text descriptors
// ("<name> <TYPE> [NOT NULL] [DEFAULT ...] [REFERENCES table]"); Fields carries
// structured records. When both are present Fields wins.
type TableSpec struct {
	Name    string      `json:"name" yaml:"name" validate:"required,identifier"`
	Columns []string    `json:"columns,omitempty" yaml:"columns,omitempty"`
	Fields  []FieldSpec `json:"fields,omitempty" yaml:"fields,omitempty" validate:"dive"`
	RLS     []string    `json:"rls,omitempty" yaml:"rls,omitempty"`
	Indexes []string    `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// ColumnCount returns the number of declared columns, structured or not.
func (t TableSpec) ColumnCount() int {
	if len(t.Fields) > 0 {
		return len(t.Fields)
	}
	return len(t.Columns)
}

// FieldSpec is the structured form of a column declaration.
type FieldSpec struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	Type       string `json:"type" yaml:"type"`
	NotNull    bool   `json:"not_null,omitempty" yaml:"not_null,omitempty"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	References string `json:"references,omitempty" yaml:"references,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Unique     bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// RouteSpec is a page the module adds to the target application.
type RouteSpec struct {
	Path      string `json:"path" yaml:"path" validate:"required,startswith=/"`
	Component string `json:"component" yaml:"component" validate:"required"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Protected bool   `json:"protected,omitempty" yaml:"protected,omitempty"`
}

// ComponentSpec is a UI component the module adds.
type ComponentSpec struct {
	Name         string   `json:"name" yaml:"name" validate:"required"`
	Path         string   `json:"path" yaml:"path" validate:"required"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// APIRouteSpec is a data-access endpoint the module adds.
type APIRouteSpec struct {
	Path        string `json:"path" yaml:"path" validate:"required"`
	Method      string `json:"method,omitempty" yaml:"method,omitempty" validate:"omitempty,oneof=GET POST PUT DELETE PATCH"`
	Table       string `json:"table,omitempty" yaml:"table,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ExternalAPISpec names an external capability the module relies on.
type ExternalAPISpec struct {
	Name        string   `json:"name" yaml:"name"`
	EnvVar      string   `json:"env_var,omitempty" yaml:"env_var,omitempty"`
	EnvVars     []string `json:"env_vars,omitempty" yaml:"env_vars,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// RequiredEnv returns every environment variable the external API needs,
// de-duplicated and in declaration order.
func (e ExternalAPISpec) RequiredEnv() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range append([]string{e.EnvVar}, e.EnvVars...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// TableNames returns the names of every table the Blueprint declares.
func (b *Blueprint) TableNames() []string {
	names := make([]string, 0, len(b.Database.NewTables))
	for _, t := range b.Database.NewTables {
		names = append(names, t.Name)
	}
	return names
}
