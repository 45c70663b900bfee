package modules

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/emit"
	"github.com/jonathan/module-builder/internal/planning"
	"github.com/jonathan/module-builder/internal/types"
)

func loyaltyBlueprint() *types.Blueprint {
	return &types.Blueprint{
		ID:          "loyalty-plus",
		Name:        "Loyalty Plus",
		Description: "Points and tiers",
		Database: types.DatabaseSpec{NewTables: []types.TableSpec{
			{Name: "loyalty_tiers", Columns: []string{
				"id UUID PRIMARY KEY DEFAULT gen_random_uuid()",
				"organization_id UUID NOT NULL",
				"name TEXT NOT NULL",
				"min_points INTEGER DEFAULT 0",
			}},
			{Name: "loyalty_rewards", Columns: []string{
				"id UUID PRIMARY KEY DEFAULT gen_random_uuid()",
				"title TEXT NOT NULL",
			}},
		}},
	}
}

// setupStore applies the emitted migration of the Blueprint to a fresh SQLite store.
func setupStore(t *testing.T, bp *types.Blueprint) db.Store {
	t.Helper()
	ctx := context.Background()
	store, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "modules.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	plan, err := planning.NewPlanner().Plan(bp)
	require.NoError(t, err)
	artifacts, err := emit.NewGenerator().Generate(ctx, bp, plan)
	require.NoError(t, err)
	require.NoError(t, store.ApplySchema(ctx, artifacts[0].Content))
	return store
}

func TestFromBlueprints_OneModulePerTable(t *testing.T) {
	bp := loyaltyBlueprint()
	reg, err := FromBlueprints(setupStore(t, bp), bp)
	require.NoError(t, err)
	assert.Equal(t, []string{"loyalty-rewards", "loyalty-tiers"}, reg.Names())

	m, err := reg.Get("loyalty-rewards")
	require.NoError(t, err)
	assert.Equal(t, "organization_id", m.(*TableModule).Target().TenantColumn)

	_, err = reg.Get("invoices")
	var unknown *UnknownModuleError
	assert.ErrorAs(t, err, &unknown)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	table, err := emit.NewTable(types.TableSpec{Name: "notes", Columns: []string{"id UUID PRIMARY KEY"}})
	require.NoError(t, err)
	_, err = NewRegistry(NewTableModule(nil, table), NewTableModule(nil, table))
	var dup *DuplicateModuleError
	assert.ErrorAs(t, err, &dup)
}

func TestTableModule_CRUD(t *testing.T) {
	bp := loyaltyBlueprint()
	reg, err := FromBlueprints(setupStore(t, bp), bp)
	require.NoError(t, err)
	tiers, err := reg.Get("loyalty-tiers")
	require.NoError(t, err)
	ctx := context.Background()

	row, err := tiers.Create(ctx, "org-a", db.Row{"name": "Gold", "min_points": 500})
	require.NoError(t, err)
	id := row["id"].(string)

	page, err := tiers.List(ctx, "org-a", db.ListOptions{Search: "gold"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = tiers.List(ctx, "org-b", db.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	updated, err := tiers.Update(ctx, "org-a", id, db.Row{"min_points": 750})
	require.NoError(t, err)
	assert.EqualValues(t, 750, updated["min_points"])

	require.NoError(t, tiers.Delete(ctx, "org-a", id))
	_, err = tiers.Get(ctx, "org-a", id)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestTableModule_Validation(t *testing.T) {
	bp := loyaltyBlueprint()
	reg, err := FromBlueprints(setupStore(t, bp), bp)
	require.NoError(t, err)
	tiers, err := reg.Get("loyalty-tiers")
	require.NoError(t, err)

	_, err = tiers.Create(context.Background(), "org-a", db.Row{"min_points": 1, "colour": "gold"})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{`unknown column "colour"`, `missing required column "name"`}, invalid.Problems)

	_, err = tiers.Update(context.Background(), "org-a", "x", db.Row{"colour": "gold"})
	assert.ErrorAs(t, err, &invalid)
}

func TestTableModule_MissingTenant(t *testing.T) {
	bp := loyaltyBlueprint()
	reg, err := FromBlueprints(setupStore(t, bp), bp)
	require.NoError(t, err)
	tiers, err := reg.Get("loyalty-tiers")
	require.NoError(t, err)

	_, err = tiers.List(context.Background(), "", db.ListOptions{})
	assert.ErrorIs(t, err, db.ErrMissingTenant)
}
