package feasibility

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/conflicts"
	"github.com/jonathan/module-builder/internal/projectctx"
	"github.com/jonathan/module-builder/internal/types"
)

// Check names.
const (
	CheckDataStoreClient   = "data_store_client"
	CheckAuthAvailable     = "auth_available"
	CheckTableNames        = "table_names_unique"
	CheckForeignKeys       = "foreign_keys_valid"
	CheckRouteSpace        = "route_space_available"
	checkComponentPrefix   = "component_dependencies:"
	checkExternalAPIPrefix = "external_api_env:"
)

// DefaultThreshold is the minimum score for a feasible Blueprint.
const DefaultThreshold = 70

// Options tunes the heuristics.
type Options struct {
	// ClientLibraries are packages that provide the data-store client; any one suffices.
	ClientLibraries []string
	// AuthFiles are project-relative files whose presence indicates an auth subsystem.
	AuthFiles []string
	// MinAuthFileBytes is the size an auth file must exceed to count.
	MinAuthFileBytes int64
	// Threshold is the minimum score for a feasible result.
	Threshold int
}

// DefaultOptions returns the heuristics used when none are configured.
func DefaultOptions() Options {
	return Options{
		ClientLibraries: []string{"@supabase/supabase-js", "@supabase/ssr"},
		AuthFiles: []string{
			"middleware.ts",
			"src/middleware.ts",
			"lib/supabase/middleware.ts",
			"utils/supabase/middleware.ts",
			"lib/auth.ts",
			"src/lib/auth.ts",
		},
		MinAuthFileBytes: 100,
		Threshold:        DefaultThreshold,
	}
}

// Analyzer produces FeasibilityReports.
type Analyzer struct {
	opts Options
}

// NewAnalyzer creates an Analyzer. Zero-valued options fall back to defaults.
func NewAnalyzer(opts Options) *Analyzer {
	def := DefaultOptions()
	if len(opts.ClientLibraries) == 0 {
		opts.ClientLibraries = def.ClientLibraries
	}
	if len(opts.AuthFiles) == 0 {
		opts.AuthFiles = def.AuthFiles
	}
	if opts.MinAuthFileBytes <= 0 {
		opts.MinAuthFileBytes = def.MinAuthFileBytes
	}
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	return &Analyzer{opts: opts}
}

// Analyze runs every check. Only the table-name and foreign-key checks add
// blockers; the others contribute to the score and to recommendations.
func (a *Analyzer) Analyze(bp *types.Blueprint, pc *types.ProjectContext) *types.FeasibilityReport {
	report := &types.FeasibilityReport{
		Checks:          []types.Check{},
		Blockers:        []string{},
		Recommendations: []string{},
	}

	report.Checks = append(report.Checks,
		a.checkClient(pc, report),
		a.checkAuth(pc, report),
		checkTableNames(bp, pc, report),
		checkForeignKeys(bp, pc, report),
	)
	report.Checks = append(report.Checks, checkComponents(bp, pc, report)...)
	report.Checks = append(report.Checks, checkExternalAPIs(bp, pc, report)...)
	report.Checks = append(report.Checks, checkRoutes(bp, pc, report))

	report.Score = Score(report.Checks)
	report.Feasible = len(report.Blockers) == 0 && report.Score >= a.opts.Threshold
	return report
}

// Score is round(100 * passed / total).
func Score(checks []types.Check) int {
	if len(checks) == 0 {
		return 0
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(len(checks))))
}

// NeedsHumanReview reports whether a person should look at the result:
// any blocker, or a score below the threshold.
func NeedsHumanReview(r *types.FeasibilityReport) bool {
	return !r.Feasible
}

// Err returns a *BlockerError when the report has blockers. A low score on
// its own is advisory and yields nil.
func Err(r *types.FeasibilityReport) error {
	if len(r.Blockers) == 0 {
		return nil
	}
	return &BlockerError{Score: r.Score, Blockers: r.Blockers}
}

// Advice is the remediation for an infeasible report without blockers. It
// is empty when the report is feasible or blocked.
func (a *Analyzer) Advice(r *types.FeasibilityReport) string {
	if r.Feasible || len(r.Blockers) > 0 {
		return ""
	}
	advice := fmt.Sprintf("feasibility score %d is below %d", r.Score, a.opts.Threshold)
	if len(r.Recommendations) > 0 {
		advice += ": " + strings.Join(r.Recommendations, "; ")
	}
	return advice
}

func (a *Analyzer) checkClient(pc *types.ProjectContext, report *types.FeasibilityReport) types.Check {
	for _, lib := range a.opts.ClientLibraries {
		if pc.HasCapability(lib) {
			return types.Check{Name: CheckDataStoreClient, Passed: true, Details: fmt.Sprintf("found %s", lib)}
		}
	}
	report.Recommendations = append(report.Recommendations,
		fmt.Sprintf("install a data-store client (%s)", strings.Join(a.opts.ClientLibraries, " or ")))
	return types.Check{Name: CheckDataStoreClient, Passed: false, Details: "no data-store client library installed"}
}

func (a *Analyzer) checkAuth(pc *types.ProjectContext, report *types.FeasibilityReport) types.Check {
	for _, file := range a.opts.AuthFiles {
		size, ok := pc.FileSize(file)
		if !ok {
			continue
		}
		if size > a.opts.MinAuthFileBytes {
			return types.Check{Name: CheckAuthAvailable, Passed: true, Details: fmt.Sprintf("found %s (%d bytes)", file, size)}
		}
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%s looks like a stub (%d bytes); confirm the auth subsystem is implemented", file, size))
		return types.Check{Name: CheckAuthAvailable, Passed: false, Details: fmt.Sprintf("%s is only %d bytes", file, size)}
	}
	report.Recommendations = append(report.Recommendations,
		"set up authentication; generated endpoints require a signed-in tenant")
	return types.Check{Name: CheckAuthAvailable, Passed: false, Details: "no auth middleware or helper found"}
}

func checkTableNames(bp *types.Blueprint, pc *types.ProjectContext, report *types.FeasibilityReport) types.Check {
	var collisions []string
	for _, t := range bp.Database.NewTables {
		if pc.HasTable(t.Name) {
			collisions = append(collisions, strings.ToLower(t.Name))
		}
	}
	if len(collisions) == 0 {
		return types.Check{Name: CheckTableNames, Passed: true, Details: fmt.Sprintf("%d new table(s), none exist", len(bp.Database.NewTables))}
	}
	for _, name := range collisions {
		report.Blockers = append(report.Blockers, fmt.Sprintf("table %s already exists; rename it to %s",
			name, conflicts.RenameSuggestion(name, bp.ID)))
	}
	return types.Check{Name: CheckTableNames, Passed: false, Details: "existing tables: " + strings.Join(collisions, ", ")}
}

func checkForeignKeys(bp *types.Blueprint, pc *types.ProjectContext, report *types.FeasibilityReport) types.Check {
	declared := make(map[string]bool)
	for _, t := range bp.Database.NewTables {
		declared[strings.ToLower(t.Name)] = true
	}

	total := 0
	var unresolved []string
	for _, t := range bp.Database.NewTables {
		for _, ref := range blueprint.ExtractReferences(t) {
			total++
			if declared[ref] || pc.HasTable(ref) {
				continue
			}
			unresolved = append(unresolved, fmt.Sprintf("%s -> %s", t.Name, ref))
		}
	}

	if total == 0 {
		return types.Check{Name: CheckForeignKeys, Passed: true, Details: "no foreign keys declared"}
	}
	if len(unresolved) == 0 {
		return types.Check{Name: CheckForeignKeys, Passed: true, Details: fmt.Sprintf("%d reference(s) resolved", total)}
	}
	for _, u := range unresolved {
		report.Blockers = append(report.Blockers, fmt.Sprintf("unresolved foreign key %s", u))
	}
	return types.Check{Name: CheckForeignKeys, Passed: false, Details: fmt.Sprintf("%d of %d reference(s) unresolved", len(unresolved), total)}
}

func checkComponents(bp *types.Blueprint, pc *types.ProjectContext, report *types.FeasibilityReport) []types.Check {
	checks := make([]types.Check, 0, len(bp.Components))
	for _, c := range bp.Components {
		var missing []string
		for _, dep := range c.Dependencies {
			if !pc.HasCapability(dep) {
				missing = append(missing, dep)
			}
		}
		check := types.Check{Name: checkComponentPrefix + c.Name, Passed: len(missing) == 0}
		if check.Passed {
			check.Details = fmt.Sprintf("%d dependencies installed", len(c.Dependencies))
		} else {
			sort.Strings(missing)
			check.Details = "missing: " + strings.Join(missing, ", ")
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("install %s for component %s", strings.Join(missing, ", "), c.Name))
		}
		checks = append(checks, check)
	}
	return checks
}

func checkExternalAPIs(bp *types.Blueprint, pc *types.ProjectContext, report *types.FeasibilityReport) []types.Check {
	checks := make([]types.Check, 0, len(bp.ExternalAPIs))
	for _, api := range bp.ExternalAPIs {
		var missing []string
		required := api.RequiredEnv()
		for _, key := range required {
			if !pc.HasEnv(key) {
				missing = append(missing, key)
			}
		}
		check := types.Check{Name: checkExternalAPIPrefix + api.Name, Passed: len(missing) == 0}
		switch {
		case len(required) == 0:
			check.Details = "no environment variables required"
		case check.Passed:
			check.Details = "configured: " + strings.Join(required, ", ")
		default:
			check.Details = "missing: " + strings.Join(missing, ", ")
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("set %s to enable %s", strings.Join(missing, ", "), api.Name))
		}
		checks = append(checks, check)
	}
	return checks
}

func checkRoutes(bp *types.Blueprint, pc *types.ProjectContext, report *types.FeasibilityReport) types.Check {
	existing := make(map[string]string, len(pc.Routes))
	for _, r := range pc.Routes {
		existing[projectctx.NormalizeRoute(r)] = r
	}

	var taken []string
	for _, r := range bp.Routes {
		if match, ok := existing[projectctx.NormalizeRoute(r.Path)]; ok {
			taken = append(taken, fmt.Sprintf("%s (existing %s)", r.Path, match))
		}
	}
	if len(taken) == 0 {
		return types.Check{Name: CheckRouteSpace, Passed: true, Details: fmt.Sprintf("%d route(s) available", len(bp.Routes))}
	}
	for _, t := range taken {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf("route %s overlaps an existing page", t))
	}
	return types.Check{Name: CheckRouteSpace, Passed: false, Details: "overlapping: " + strings.Join(taken, ", ")}
}
