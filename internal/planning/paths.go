package planning

import (
	"path"
	"strings"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/types"
)

// Target paths are relative to the project root and slash-separated.

// MigrationPath is where the schema migration lands.
func MigrationPath(bp *types.Blueprint) string {
	return path.Join("supabase", "migrations", blueprint.ToSnakeCase(bp.ID)+".sql")
}

// TypesPath is where the data contracts land.
func TypesPath(bp *types.Blueprint) string {
	return path.Join("types", bp.ID+".ts")
}

// APIRoutePath maps "/api/loyalty/tiers/route" or "/api/loyalty/tiers" to
// "app/api/loyalty/tiers/route.ts".
func APIRoutePath(route types.APIRouteSpec) string {
	p := "/" + strings.Trim(route.Path, "/")
	p = strings.TrimSuffix(strings.TrimSuffix(p, ".ts"), "/route")
	if p != "/api" && !strings.HasPrefix(p, "/api/") {
		p = "/api" + p
	}
	return path.Join("app", p, "route.ts")
}

// HookPath is where a table's state hook lands.
func HookPath(table string) string {
	return path.Join("hooks", blueprint.HookName(table)+".ts")
}

// ComponentPath is the declared component path, or components/<Name>.tsx.
func ComponentPath(c types.ComponentSpec) string {
	if c.Path != "" {
		return strings.TrimPrefix(path.Clean(c.Path), "/")
	}
	return path.Join("components", blueprint.ToPascalCase(c.Name)+".tsx")
}

// PagePath maps "/rewards/[id]" to "app/rewards/[id]/page.tsx".
func PagePath(route types.RouteSpec) string {
	return path.Join("app", strings.Trim(route.Path, "/"), "page.tsx")
}

// UnitTestPath is where generated unit tests land.
func UnitTestPath(bp *types.Blueprint) string {
	return path.Join("__tests__", bp.ID, "unit.test.ts")
}

// IntegrationTestPath is where generated integration tests land.
func IntegrationTestPath(bp *types.Blueprint) string {
	return path.Join("__tests__", bp.ID, "integration.test.ts")
}

// FeatureConfigPath is where the feature flag entry lands.
func FeatureConfigPath(bp *types.Blueprint) string {
	return path.Join("config", "features", bp.ID+".json")
}
