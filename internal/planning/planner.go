package planning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/types"
)

// Fixed step names.
const (
	StepDatabaseMigration = "Database Migration"
	StepDatabaseTypes     = "Database Types"
	StepUnitTests         = "Unit Tests"
	StepIntegrationTests  = "Integration Tests"
	StepFeatureConfig     = "Feature Config"
)

// DefaultBudgets are the per-kind time estimates in seconds. They feed the
// report only and never influence ordering.
var DefaultBudgets = map[types.StepKind]int{
	types.StepMigration:        30,
	types.StepTypes:            20,
	types.StepAPIRoute:         45,
	types.StepHook:             30,
	types.StepComponent:        60,
	types.StepPage:             45,
	types.StepUnitTests:        90,
	types.StepIntegrationTests: 120,
	types.StepConfig:           10,
}

// HookStepName names the hook step for a table: "loyalty_tiers" -> "useLoyaltyTiers Hook".
func HookStepName(table string) string {
	return blueprint.HookName(table) + " Hook"
}

// APIRouteStepName names the step for an API route.
func APIRouteStepName(r types.APIRouteSpec) string {
	if r.Method == "" {
		return "API Route " + r.Path
	}
	return fmt.Sprintf("API Route %s %s", r.Method, r.Path)
}

// ComponentStepName names the step for a component.
func ComponentStepName(c types.ComponentSpec) string {
	return "Component " + c.Name
}

// PageStepName names the step for a page route.
func PageStepName(r types.RouteSpec) string {
	return "Page " + r.Path
}

// Planner builds ExecutionPlans.
type Planner struct {
	budgets map[types.StepKind]int
	now     func() time.Time
}

// NewPlanner creates a Planner with the default budgets.
func NewPlanner() *Planner {
	return &Planner{budgets: DefaultBudgets, now: time.Now}
}

// Plan orders the work in fixed phases: migration, types, API routes, hooks,
// components, pages, tests, config. The dependency invariant is verified
// before the plan is returned.
func (p *Planner) Plan(bp *types.Blueprint) (*types.ExecutionPlan, error) {
	b := &builder{budgets: p.budgets}

	b.add(types.StepMigration, StepDatabaseMigration, MigrationPath(bp),
		fmt.Sprintf("Create %d table(s) with existence-guarded DDL", len(bp.Database.NewTables)))
	b.add(types.StepTypes, StepDatabaseTypes, TypesPath(bp),
		"Generate row types and validation schemas", StepDatabaseMigration)

	for _, r := range bp.APIRoutes {
		desc := r.Description
		if desc == "" {
			desc = fmt.Sprintf("Tenant-scoped endpoint for %s", r.Path)
		}
		b.add(types.StepAPIRoute, APIRouteStepName(r), APIRoutePath(r), desc, StepDatabaseTypes)
	}

	hookSteps := make([]string, 0, len(bp.Database.NewTables))
	for _, t := range bp.Database.NewTables {
		name := HookStepName(t.Name)
		b.add(types.StepHook, name, HookPath(t.Name),
			fmt.Sprintf("State hook for %s", t.Name), StepDatabaseTypes)
		hookSteps = append(hookSteps, name)
	}

	components := append([]types.ComponentSpec(nil), bp.Components...)
	sort.SliceStable(components, func(i, j int) bool {
		return len(components[i].Dependencies) < len(components[j].Dependencies)
	})
	componentSteps := make([]string, 0, len(components))
	componentByName := make(map[string]string, len(components))
	for _, c := range components {
		name := ComponentStepName(c)
		deps := append([]string{StepDatabaseTypes}, hookSteps...)
		desc := c.Description
		if desc == "" {
			desc = fmt.Sprintf("UI scaffold for %s", c.Name)
		}
		b.add(types.StepComponent, name, ComponentPath(c), desc, deps...)
		componentSteps = append(componentSteps, name)
		componentByName[strings.ToLower(c.Name)] = name
	}

	for _, r := range bp.Routes {
		deps := []string{StepDatabaseTypes}
		if step, ok := componentByName[strings.ToLower(r.Component)]; ok {
			deps = append(deps, step)
		}
		title := r.Title
		if title == "" {
			title = r.Component
		}
		b.add(types.StepPage, PageStepName(r), PagePath(r), fmt.Sprintf("Page %s rendering %s", r.Path, title), deps...)
	}

	b.add(types.StepUnitTests, StepUnitTests, UnitTestPath(bp),
		"Unit tests for hooks and components", append(componentSteps, hookSteps...)...)
	b.add(types.StepIntegrationTests, StepIntegrationTests, IntegrationTestPath(bp),
		"Integration tests against the data store", StepUnitTests)
	b.add(types.StepConfig, StepFeatureConfig, FeatureConfigPath(bp),
		"Register the feature flag")

	plan := &types.ExecutionPlan{
		BlueprintID:       bp.ID,
		Steps:             b.steps,
		EstimatedDuration: b.total,
		CreatedAt:         p.now().UTC(),
	}
	if err := Validate(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Validate checks that step names are unique and that every dependency names
// a step with a strictly smaller order.
func Validate(plan *types.ExecutionPlan) error {
	orders := make(map[string]int, len(plan.Steps))
	for _, s := range plan.Steps {
		if _, dup := orders[s.Name]; dup {
			return &InvariantViolation{Step: s.Name, Message: "step name defined more than once"}
		}
		orders[s.Name] = s.Order
	}
	for _, s := range plan.Steps {
		for _, dep := range s.DependsOn {
			order, ok := orders[dep]
			if !ok {
				return &InvariantViolation{Step: s.Name, Missing: dep, Message: "no such step"}
			}
			if order >= s.Order {
				return &InvariantViolation{Step: s.Name, Missing: dep, Message: fmt.Sprintf("defined at order %d, not before %d", order, s.Order)}
			}
		}
	}
	return nil
}

type builder struct {
	budgets map[types.StepKind]int
	steps   []types.ExecutionStep
	total   int
}

func (b *builder) add(kind types.StepKind, name, target, description string, dependsOn ...string) {
	seconds := b.budgets[kind]
	if dependsOn == nil {
		dependsOn = []string{}
	}
	b.steps = append(b.steps, types.ExecutionStep{
		Order:            len(b.steps) + 1,
		Kind:             kind,
		Name:             name,
		TargetPath:       target,
		DependsOn:        dependsOn,
		Description:      description,
		EstimatedSeconds: seconds,
	})
	b.total += seconds
}
