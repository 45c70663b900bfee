package conflicts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/module-builder/internal/types"
)

func table(name string) types.TableSpec {
	return types.TableSpec{Name: name, Columns: []string{"id UUID PRIMARY KEY"}}
}

func blueprintWith(tables ...types.TableSpec) *types.Blueprint {
	return &types.Blueprint{
		ID:       "loyalty-plus",
		Name:     "Loyalty Plus",
		Database: types.DatabaseSpec{NewTables: tables},
	}
}

func TestDetect_EmptyProjectHasNoConflicts(t *testing.T) {
	report := NewDetector(nil).Detect(blueprintWith(table("loyalty_tiers")), &types.ProjectContext{})

	assert.False(t, report.HasConflicts)
	assert.Empty(t, report.Conflicts)
	assert.Empty(t, report.Warnings)
	assert.NoError(t, Err(report))
	assert.False(t, NeedsHumanReview(report))
}

func TestDetect_TableCollisionIsError(t *testing.T) {
	pc := &types.ProjectContext{Tables: []string{"User"}}

	report := NewDetector(nil).Detect(blueprintWith(table("user")), pc)

	assert.True(t, report.HasConflicts)
	require.Len(t, report.Errors(), 1)
	c := report.Errors()[0]
	assert.Equal(t, types.ConflictTable, c.Type)
	assert.Equal(t, "User", c.ExistingName)
	assert.Equal(t, "user", c.ProposedName)
	assert.Equal(t, "user_loyalty-plus", c.Suggestion)

	var conflictErr *ConflictError
	require.ErrorAs(t, Err(report), &conflictErr)
	assert.Contains(t, conflictErr.Error(), "suggest user_loyalty-plus")
}

func TestDetect_ReservedWordIsWarningOnly(t *testing.T) {
	report := NewDetector(nil).Detect(blueprintWith(table("order")), &types.ProjectContext{Tables: []string{"invoices"}})

	assert.False(t, report.HasConflicts)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "order", report.Warnings[0].Name)
	assert.True(t, NeedsHumanReview(report))
}

func TestDetect_CustomReservedWords(t *testing.T) {
	report := NewDetector([]string{"ledger"}).Detect(blueprintWith(table("Ledger"), table("order")), &types.ProjectContext{})
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "Ledger", report.Warnings[0].Name)
}

func TestDetect_Routes(t *testing.T) {
	bp := blueprintWith(table("loyalty_tiers"))
	bp.Routes = []types.RouteSpec{
		{Path: "/rewards/[tierId]", Component: "TierPage"},
		{Path: "/rewards", Component: "RewardsPage"},
	}
	pc := &types.ProjectContext{Routes: []string{"/rewards/[id]"}}

	report := NewDetector(nil).Detect(bp, pc)

	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, types.ConflictRoute, c.Type)
	assert.Equal(t, types.SeverityError, c.Severity)
	assert.Equal(t, "/rewards/[id]", c.ExistingName)
	assert.Equal(t, "/loyalty-plus/rewards/[tierId]", c.Suggestion)
	assert.True(t, report.HasConflicts)
}

func TestDetect_ComponentNameIsWarningFileIsError(t *testing.T) {
	bp := blueprintWith(table("loyalty_tiers"))
	bp.Components = []types.ComponentSpec{
		{Name: "tierCard", Path: "components/loyalty/TierCard.tsx"},
		{Name: "Badge", Path: "components/Badge.tsx"},
	}
	pc := &types.ProjectContext{
		Components: []string{"TierCard", "Button"},
		Files:      []string{"components/Badge.tsx"},
	}

	report := NewDetector(nil).Detect(bp, pc)

	require.Len(t, report.Conflicts, 2)
	name := report.Conflicts[0]
	assert.Equal(t, types.ConflictComponent, name.Type)
	assert.Equal(t, types.SeverityWarning, name.Severity)
	assert.Equal(t, "LoyaltyPlusTierCard", name.Suggestion)

	file := report.Conflicts[1]
	assert.Equal(t, types.ConflictFile, file.Type)
	assert.Equal(t, types.SeverityError, file.Severity)
	assert.Equal(t, "components/loyalty-plus/Badge.tsx", file.Suggestion)

	require.Len(t, report.Errors(), 1)
	assert.True(t, report.HasConflicts)
}

func TestDetect_ComponentWarningAloneDoesNotBlock(t *testing.T) {
	bp := blueprintWith(table("loyalty_tiers"))
	bp.Components = []types.ComponentSpec{{Name: "TierCard", Path: "components/loyalty/TierCard.tsx"}}

	report := NewDetector(nil).Detect(bp, &types.ProjectContext{Components: []string{"TierCard"}})

	assert.False(t, report.HasConflicts)
	assert.Len(t, report.Conflicts, 1)
	assert.NoError(t, Err(report))
	assert.True(t, NeedsHumanReview(report))
}

func TestDetect_APIRoutes(t *testing.T) {
	bp := blueprintWith(table("loyalty_tiers"))
	bp.APIRoutes = []types.APIRouteSpec{
		{Path: "/api/bookings/route", Method: "GET"},
		{Path: "/api/loyalty/route", Method: "GET"},
	}
	pc := &types.ProjectContext{APIRoutes: []string{"/api/bookings"}}

	report := NewDetector(nil).Detect(bp, pc)

	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, types.ConflictAPIRoute, c.Type)
	assert.Equal(t, "/api/bookings", c.ExistingName)
	assert.Equal(t, "/api/loyalty-plus/bookings/route", c.Suggestion)
}
