package emit

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/planning"
	"github.com/jonathan/module-builder/internal/types"
)

// HTTPMethods are the methods a route without an explicit method serves.
var HTTPMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

type endpointData struct {
	*Input
	Table   *Table
	Route   types.APIRouteSpec
	URL     string
	Methods []string
}

// Handles reports whether the endpoint serves the method.
func (d endpointData) Handles(method string) bool {
	for _, m := range d.Methods {
		if m == method {
			return true
		}
	}
	return false
}

func (d endpointData) DefaultPageSize() int { return DefaultPageSize }
func (d endpointData) MaxPageSize() int { return MaxPageSize }

func (in *Input) endpoint(r types.APIRouteSpec) (endpointData, error) {
	t := in.TableForRoute(r)
	if t == nil {
		return endpointData{}, fmt.Errorf("no table to serve %s", r.Path)
	}
	methods := HTTPMethods
	if r.Method != "" {
		methods = []string{strings.ToUpper(r.Method)}
	}
	return endpointData{Input: in, Table: t, Route: r, URL: EndpointURL(r), Methods: methods}, nil
}

// Endpoints returns every declared API route resolved to its table.
func (in *Input) Endpoints() []endpointData {
	var out []endpointData
	for _, r := range in.Blueprint.APIRoutes {
		if d, err := in.endpoint(r); err == nil {
			out = append(out, d)
		}
	}
	return out
}

func emitContracts(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	content, err := g.Render("contracts.ts", in)
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Kind: types.ArtifactContracts, Path: "types.ts", Content: content}, nil
}

func emitEndpoint(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	r, ok := in.apiRoutes[step.Name]
	if !ok {
		return types.Artifact{}, fmt.Errorf("no API route declared for step %q", step.Name)
	}
	data, err := in.endpoint(r)
	if err != nil {
		return types.Artifact{}, err
	}
	content, err := g.Render("endpoint.ts", data)
	if err != nil {
		return types.Artifact{}, err
	}
	slug := strings.Trim(strings.TrimPrefix(data.URL, "/api"), "/")
	slug = strings.NewReplacer("/", "-", "[", "", "]", "", "...", "").Replace(slug)
	if slug == "" {
		slug = "index"
	}
	if r.Method != "" {
		slug += "." + strings.ToLower(r.Method)
	}
	return types.Artifact{Kind: types.ArtifactEndpoint, Path: path.Join("api", slug+".ts"), Content: content}, nil
}

type hookData struct {
	*Input
	Table *Table
}

func (d hookData) DefaultPageSize() int { return DefaultPageSize }

func emitHook(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	t, ok := in.hooks[step.Name]
	if !ok {
		return types.Artifact{}, fmt.Errorf("no table for hook step %q", step.Name)
	}
	content, err := g.Render("hook.ts", hookData{Input: in, Table: t})
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Kind: types.ArtifactHook, Path: path.Join("hooks", t.Hook+".ts"), Content: content}, nil
}

type componentData struct {
	*Input
	Component types.ComponentSpec
	Name      string
	Table     *Table
}

// Columns returns at most five display columns, skipping the tenant scope and
// open key-value columns.
func (d componentData) Columns() []string {
	var out []string
	for _, f := range d.Table.Fields {
		if f.Name() == d.Table.TenantColumn || f.Column.SQLType == types.SQLTypeJSON {
			continue
		}
		out = append(out, f.Name())
		if len(out) == 5 {
			break
		}
	}
	return out
}

func emitComponent(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	c, ok := in.components[step.Name]
	if !ok {
		return types.Artifact{}, fmt.Errorf("no component declared for step %q", step.Name)
	}
	data := componentData{Input: in, Component: c, Name: blueprint.ToPascalCase(c.Name), Table: in.TableForComponent(c.Name)}
	if data.Table == nil {
		return types.Artifact{}, fmt.Errorf("component %s has no table to list", c.Name)
	}
	content, err := g.Render("component.tsx", data)
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Kind: types.ArtifactComponent, Path: path.Join("components", data.Name+".tsx"), Content: content}, nil
}

type pageData struct {
	*Input
	Route           types.RouteSpec
	Title           string
	FuncName        string
	ComponentName   string
	ComponentImport string
}

func emitPage(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	r, ok := in.pages[step.Name]
	if !ok {
		return types.Artifact{}, fmt.Errorf("no route declared for step %q", step.Name)
	}
	data := pageData{Input: in, Route: r, Title: r.Title, FuncName: pageFuncName(r.Path)}
	if data.Title == "" {
		data.Title = r.Component
	}
	for _, c := range in.Blueprint.Components {
		if strings.EqualFold(c.Name, r.Component) {
			data.ComponentName = blueprint.ToPascalCase(c.Name)
			data.ComponentImport = "@/" + strings.TrimSuffix(planning.ComponentPath(c), path.Ext(planning.ComponentPath(c)))
			break
		}
	}
	content, err := g.Render("page.tsx", data)
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Kind: types.ArtifactPage, Path: path.Join("pages", pageFileName(r.Path)+".tsx"), Content: content}, nil
}

// pageFuncName maps "/rewards/[id]" to "RewardsIdPage".
func pageFuncName(route string) string {
	name := blueprint.ToPascalCase(pageFileName(route))
	if name == "" {
		name = "Index"
	}
	return name + "Page"
}

// pageFileName maps "/rewards/[id]" to "rewards-id" and "/" to "index".
func pageFileName(route string) string {
	var parts []string
	for _, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		seg = strings.Trim(seg, "[].():@")
		if seg != "" {
			parts = append(parts, blueprint.ToKebabCase(seg))
		}
	}
	if len(parts) == 0 {
		return "index"
	}
	return strings.Join(parts, "-")
}

func emitUnitTests(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	content, err := g.Render("unit.test.ts", in)
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Kind: types.ArtifactTest, Path: path.Join("tests", in.Blueprint.ID+".test.ts"), Content: content}, nil
}

func emitIntegrationTests(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	content, err := g.Render("integration.test.ts", in)
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Kind: types.ArtifactTest, Path: path.Join("tests", in.Blueprint.ID+".integration.test.ts"), Content: content}, nil
}

// FeatureConfig is the feature flag entry registered for a module.
type FeatureConfig struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Tables      []string `json:"tables"`
	Routes      []string `json:"routes"`
	APIRoutes   []string `json:"api_routes"`
	Components  []string `json:"components"`
}

func emitFeatureConfig(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	bp := in.Blueprint
	cfg := FeatureConfig{
		ID:          bp.ID,
		Name:        bp.Name,
		Description: bp.Description,
		Tables:      bp.TableNames(),
		Routes:      []string{},
		APIRoutes:   []string{},
		Components:  []string{},
	}
	for _, r := range bp.Routes {
		cfg.Routes = append(cfg.Routes, r.Path)
	}
	for _, r := range bp.APIRoutes {
		cfg.APIRoutes = append(cfg.APIRoutes, EndpointURL(r))
	}
	for _, c := range bp.Components {
		cfg.Components = append(cfg.Components, c.Name)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return types.Artifact{}, fmt.Errorf("failed to marshal feature config: %w", err)
	}
	return types.Artifact{Kind: types.ArtifactConfig, Path: path.Join("config", "feature.json"), Content: string(data) + "\n"}, nil
}

// Sample returns a TypeScript literal that satisfies the field's rule.
func (f Field) Sample() string {
	if f.Name() == "status" {
		return "'active'"
	}
	switch f.Column.SQLType {
	case types.SQLTypeUUID:
		return "'00000000-0000-4000-8000-000000000001'"
	case types.SQLTypeInteger:
		return "1"
	case types.SQLTypeDecimal:
		return "1.5"
	case types.SQLTypeBoolean:
		return "true"
	case types.SQLTypeDate, types.SQLTypeTimestamp:
		return "'2024-01-01T00:00:00.000Z'"
	case types.SQLTypeJSON:
		return "{}"
	default:
		return tsQuote("sample " + f.Name())
	}
}

// Required reports whether the contract rejects a row without the field.
func (f Field) Required() bool {
	return !f.Optional && !f.Defaulted
}
