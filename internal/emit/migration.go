package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/module-builder/internal/types"
)

var (
	createIndexPattern  = regexp.MustCompile(`(?i)^CREATE\s+(UNIQUE\s+)?INDEX\s+(IF\s+NOT\s+EXISTS\s+)?`)
	createPolicyPattern = regexp.MustCompile(`(?i)^CREATE\s+POLICY\s`)
	identifierCleaner   = regexp.MustCompile(`[^a-z0-9_]+`)
)

// Indexes returns existence-guarded CREATE INDEX statements: one on the tenant
// column followed by each declared index. A declared index is either a full
// CREATE INDEX statement or a comma-separated column list.
func (t *Table) Indexes() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(stmt string) {
		if !seen[stmt] {
			seen[stmt] = true
			out = append(out, stmt)
		}
	}

	add(columnIndex(t.Name, []string{t.TenantColumn}))
	for _, desc := range t.Spec.Indexes {
		desc = strings.TrimSuffix(strings.TrimSpace(desc), ";")
		if desc == "" {
			continue
		}
		if createIndexPattern.MatchString(desc) {
			add(createIndexPattern.ReplaceAllString(desc, "CREATE ${1}INDEX IF NOT EXISTS ") + ";")
			continue
		}
		desc = strings.TrimSuffix(strings.TrimPrefix(desc, "("), ")")
		var cols []string
		for _, c := range strings.Split(desc, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			add(columnIndex(t.Name, cols))
		}
	}
	return out
}

func columnIndex(table string, cols []string) string {
	name := identifierCleaner.ReplaceAllString(strings.ToLower("idx_"+table+"_"+strings.Join(cols, "_")), "_")
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", name, table, strings.Join(cols, ", "))
}

// Policies returns the row-level security policies of the table. Declared
// CREATE POLICY statements are wrapped so that re-applying them is a no-op;
// other descriptors are carried as comments. A table with no declared
// policies gets a tenant isolation policy.
func (t *Table) Policies() []string {
	var out []string
	for _, desc := range t.Spec.RLS {
		desc = strings.TrimSuffix(strings.TrimSpace(desc), ";")
		if desc == "" {
			continue
		}
		if createPolicyPattern.MatchString(desc) {
			out = append(out, guardPolicy(desc))
			continue
		}
		out = append(out, "-- RLS: "+strings.ReplaceAll(desc, "\n", " "))
	}
	if len(out) > 0 {
		return out
	}

	claim := fmt.Sprintf("(auth.jwt() ->> '%s')", t.TenantColumn)
	if f, ok := t.Field(t.TenantColumn); ok && f.Column.SQLType == types.SQLTypeUUID {
		claim += "::uuid"
	}
	stmt := fmt.Sprintf("CREATE POLICY %s_tenant_isolation ON %s\n        USING (%s = %s)\n        WITH CHECK (%s = %s)",
		t.Name, t.Name, t.TenantColumn, claim, t.TenantColumn, claim)
	return []string{guardPolicy(stmt)}
}

// guardPolicy wraps a CREATE POLICY statement in a block that ignores
// duplicate_object, since Postgres has no CREATE POLICY IF NOT EXISTS.
func guardPolicy(stmt string) string {
	return "DO $$\nBEGIN\n    " + stmt + ";\nEXCEPTION WHEN duplicate_object THEN NULL;\nEND\n$$;"
}

func emitMigration(g *Generator, in *Input, step types.ExecutionStep) (types.Artifact, error) {
	content, err := g.Render("migration.sql", in)
	if err != nil {
		return types.Artifact{}, err
	}
	return types.Artifact{Kind: types.ArtifactMigration, Path: "migration.sql", Content: content}, nil
}
