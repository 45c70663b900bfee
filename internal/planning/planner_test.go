package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/types"
)

func loyaltyPlus() *types.Blueprint {
	return &types.Blueprint{
		ID:   "loyalty-plus",
		Name: "Loyalty Plus",
		Database: types.DatabaseSpec{NewTables: []types.TableSpec{{
			Name: "loyalty_tiers",
			Columns: []string{
				"id UUID PRIMARY KEY",
				"organization_id UUID NOT NULL",
				"name TEXT NOT NULL",
				"min_points INTEGER DEFAULT 0",
			},
		}}},
	}
}

func stepNames(plan *types.ExecutionPlan) []string {
	names := make([]string, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		names = append(names, s.Name)
	}
	return names
}

func TestPlan_MinimalBlueprint(t *testing.T) {
	plan, err := NewPlanner().Plan(loyaltyPlus())
	require.NoError(t, err)

	assert.Equal(t, []string{
		StepDatabaseMigration,
		StepDatabaseTypes,
		"useLoyaltyTiers Hook",
		StepUnitTests,
		StepIntegrationTests,
		StepFeatureConfig,
	}, stepNames(plan))

	for i, s := range plan.Steps {
		assert.Equal(t, i+1, s.Order)
	}
	assert.Empty(t, plan.Steps[0].DependsOn)
	assert.Equal(t, []string{StepDatabaseMigration}, plan.Steps[1].DependsOn)
	assert.Equal(t, []string{StepDatabaseTypes}, plan.Steps[2].DependsOn)
	assert.Equal(t, []string{"useLoyaltyTiers Hook"}, plan.Steps[3].DependsOn)
	assert.Equal(t, []string{StepUnitTests}, plan.Steps[4].DependsOn)
	assert.Empty(t, plan.Steps[5].DependsOn)

	assert.Equal(t, "loyalty-plus", plan.BlueprintID)
	assert.Equal(t, 30+20+30+90+120+10, plan.EstimatedDuration)
	assert.Equal(t, "supabase/migrations/loyalty_plus.sql", plan.Steps[0].TargetPath)
	assert.Equal(t, "hooks/useLoyaltyTiers.ts", plan.Steps[2].TargetPath)
}

func TestPlan_FullBlueprint(t *testing.T) {
	bp := loyaltyPlus()
	bp.Database.NewTables = append(bp.Database.NewTables, types.TableSpec{
		Name: "loyalty_members", Columns: []string{"id UUID"},
	})
	bp.APIRoutes = []types.APIRouteSpec{{Path: "/api/loyalty/tiers/route", Method: "GET"}}
	bp.Components = []types.ComponentSpec{
		{Name: "TierChart", Path: "components/loyalty/TierChart.tsx", Dependencies: []string{"recharts", "date-fns"}},
		{Name: "TierCard", Path: "components/loyalty/TierCard.tsx"},
		{Name: "MemberList", Path: "components/loyalty/MemberList.tsx", Dependencies: []string{"react-table"}},
	}
	bp.Routes = []types.RouteSpec{
		{Path: "/loyalty", Component: "TierCard"},
		{Path: "/loyalty/[id]", Component: "Unknown"},
	}

	plan, err := NewPlanner().Plan(bp)
	require.NoError(t, err)

	assert.Equal(t, []string{
		StepDatabaseMigration,
		StepDatabaseTypes,
		"API Route GET /api/loyalty/tiers/route",
		"useLoyaltyTiers Hook",
		"useLoyaltyMembers Hook",
		"Component TierCard",
		"Component MemberList",
		"Component TierChart",
		"Page /loyalty",
		"Page /loyalty/[id]",
		StepUnitTests,
		StepIntegrationTests,
		StepFeatureConfig,
	}, stepNames(plan))

	card, ok := plan.Step("Component TierCard")
	require.True(t, ok)
	assert.Equal(t, []string{StepDatabaseTypes, "useLoyaltyTiers Hook", "useLoyaltyMembers Hook"}, card.DependsOn)

	page, _ := plan.Step("Page /loyalty")
	assert.Equal(t, []string{StepDatabaseTypes, "Component TierCard"}, page.DependsOn)
	assert.Equal(t, "app/loyalty/page.tsx", page.TargetPath)

	unresolved, _ := plan.Step("Page /loyalty/[id]")
	assert.Equal(t, []string{StepDatabaseTypes}, unresolved.DependsOn)

	unit, _ := plan.Step(StepUnitTests)
	assert.ElementsMatch(t, []string{
		"Component TierCard", "Component MemberList", "Component TierChart",
		"useLoyaltyTiers Hook", "useLoyaltyMembers Hook",
	}, unit.DependsOn)

	api, _ := plan.Step("API Route GET /api/loyalty/tiers/route")
	assert.Equal(t, "app/api/loyalty/tiers/route.ts", api.TargetPath)
	assert.Len(t, plan.StepsOfKind(types.StepComponent), 3)
}

func TestPlan_TopologicalSoundness(t *testing.T) {
	bp := loyaltyPlus()
	bp.Components = []types.ComponentSpec{{Name: "A", Path: "components/A.tsx"}}
	bp.Routes = []types.RouteSpec{{Path: "/a", Component: "A"}}

	plan, err := NewPlanner().Plan(bp)
	require.NoError(t, err)

	orders := make(map[string]int)
	for _, s := range plan.Steps {
		orders[s.Name] = s.Order
	}
	for _, s := range plan.Steps {
		for _, dep := range s.DependsOn {
			order, ok := orders[dep]
			require.True(t, ok, "%s depends on unknown %s", s.Name, dep)
			assert.Less(t, order, s.Order)
		}
	}
}

func TestPlan_CreatedAtUsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPlanner()
	p.now = func() time.Time { return fixed }

	plan, err := p.Plan(loyaltyPlus())
	require.NoError(t, err)
	assert.Equal(t, fixed, plan.CreatedAt)
}

func TestPlan_DuplicateHookNamesViolateInvariant(t *testing.T) {
	bp := loyaltyPlus()
	bp.Database.NewTables = append(bp.Database.NewTables, types.TableSpec{Name: "loyalty_tier", Columns: []string{"id UUID"}})

	_, err := NewPlanner().Plan(bp)
	var violation *InvariantViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "useLoyaltyTiers Hook", violation.Step)
}

func TestValidate(t *testing.T) {
	plan := &types.ExecutionPlan{Steps: []types.ExecutionStep{
		{Order: 1, Name: "a"},
		{Order: 2, Name: "b", DependsOn: []string{"c"}},
		{Order: 3, Name: "c"},
	}}
	err := Validate(plan)
	var violation *InvariantViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "b", violation.Step)
	assert.Equal(t, "c", violation.Missing)

	plan.Steps[1].DependsOn = []string{"missing"}
	require.ErrorAs(t, Validate(plan), &violation)
	assert.Equal(t, "missing", violation.Missing)

	plan.Steps[1].DependsOn = []string{"a"}
	assert.NoError(t, Validate(plan))
}

func TestTargetPaths(t *testing.T) {
	assert.Equal(t, "app/api/loyalty/route.ts", APIRoutePath(types.APIRouteSpec{Path: "/api/loyalty"}))
	assert.Equal(t, "app/api/loyalty/route.ts", APIRoutePath(types.APIRouteSpec{Path: "loyalty/route"}))
	assert.Equal(t, "components/TierCard.tsx", ComponentPath(types.ComponentSpec{Name: "tier_card"}))
	assert.Equal(t, "app/page.tsx", PagePath(types.RouteSpec{Path: "/"}))
}
