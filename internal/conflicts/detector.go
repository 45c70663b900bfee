package conflicts

import (
	"fmt"
	"path"
	"strings"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/projectctx"
	"github.com/jonathan/module-builder/internal/types"
)

// DefaultReservedWords are SQL keywords and names that commonly clash with
// built-in auth tables. Using one as a table name is allowed but discouraged.
var DefaultReservedWords = []string{
	"user", "users", "order", "group", "table", "index", "select", "insert",
	"update", "delete", "from", "where", "join", "limit", "offset", "key",
	"column", "constraint", "default", "check", "references", "primary",
	"role", "session", "grant", "view", "schema", "all", "null",
}

// Detector finds collisions between a Blueprint and a ProjectContext.
type Detector struct {
	reserved map[string]bool
}

// NewDetector creates a Detector. A nil word list uses DefaultReservedWords.
func NewDetector(reservedWords []string) *Detector {
	if reservedWords == nil {
		reservedWords = DefaultReservedWords
	}
	reserved := make(map[string]bool, len(reservedWords))
	for _, w := range reservedWords {
		reserved[strings.ToLower(w)] = true
	}
	return &Detector{reserved: reserved}
}

// Detect checks tables, page routes, components, component files and API
// routes. HasConflicts is true iff an error-severity conflict exists.
func (d *Detector) Detect(bp *types.Blueprint, pc *types.ProjectContext) *types.ConflictReport {
	report := &types.ConflictReport{
		Conflicts: []types.Conflict{},
		Warnings:  []types.ConflictWarning{},
	}

	d.detectTables(bp, pc, report)
	detectRoutes(bp, pc, report)
	detectComponents(bp, pc, report)
	detectAPIRoutes(bp, pc, report)

	report.HasConflicts = len(report.Errors()) > 0
	return report
}

// Err returns a *ConflictError when the report has error-severity conflicts.
func Err(report *types.ConflictReport) error {
	if !report.HasConflicts {
		return nil
	}
	return &ConflictError{Conflicts: report.Errors()}
}

// NeedsHumanReview reports whether a report carries anything a person should look at.
func NeedsHumanReview(report *types.ConflictReport) bool {
	return len(report.Conflicts) > 0 || len(report.Warnings) > 0
}

// RenameSuggestion is the table name proposed when a table collides:
// <table>_<blueprintId>, with the id kept verbatim.
func RenameSuggestion(table, blueprintID string) string {
	return fmt.Sprintf("%s_%s", table, blueprintID)
}

func (d *Detector) detectTables(bp *types.Blueprint, pc *types.ProjectContext, report *types.ConflictReport) {
	for _, t := range bp.Database.NewTables {
		for _, existing := range pc.Tables {
			if strings.EqualFold(existing, t.Name) {
				report.Conflicts = append(report.Conflicts, types.Conflict{
					Type:         types.ConflictTable,
					ExistingName: existing,
					ProposedName: t.Name,
					Severity:     types.SeverityError,
					Suggestion:   RenameSuggestion(t.Name, bp.ID),
				})
				break
			}
		}
		if d.reserved[strings.ToLower(t.Name)] {
			report.Warnings = append(report.Warnings, types.ConflictWarning{
				Type:    types.ConflictTable,
				Name:    t.Name,
				Message: fmt.Sprintf("%q is a reserved word; consider %s", t.Name, RenameSuggestion(t.Name, bp.ID)),
			})
		}
	}
}

func detectRoutes(bp *types.Blueprint, pc *types.ProjectContext, report *types.ConflictReport) {
	existing := make(map[string]string, len(pc.Routes))
	for _, r := range pc.Routes {
		existing[projectctx.NormalizeRoute(r)] = r
	}
	for _, r := range bp.Routes {
		match, ok := existing[projectctx.NormalizeRoute(r.Path)]
		if !ok {
			continue
		}
		report.Conflicts = append(report.Conflicts, types.Conflict{
			Type:         types.ConflictRoute,
			ExistingName: match,
			ProposedName: r.Path,
			Severity:     types.SeverityError,
			Suggestion:   "/" + bp.ID + "/" + strings.TrimPrefix(r.Path, "/"),
		})
	}
}

func detectComponents(bp *types.Blueprint, pc *types.ProjectContext, report *types.ConflictReport) {
	prefix := blueprint.ToPascalCase(bp.ID)
	for _, c := range bp.Components {
		for _, existing := range pc.Components {
			if strings.EqualFold(existing, c.Name) {
				report.Conflicts = append(report.Conflicts, types.Conflict{
					Type:         types.ConflictComponent,
					ExistingName: existing,
					ProposedName: c.Name,
					Severity:     types.SeverityWarning,
					Suggestion:   prefix + blueprint.ToPascalCase(c.Name),
				})
				break
			}
		}

		file := strings.TrimPrefix(path.Clean(c.Path), "/")
		if c.Path != "" && pc.HasFile(file) {
			report.Conflicts = append(report.Conflicts, types.Conflict{
				Type:         types.ConflictFile,
				ExistingName: file,
				ProposedName: c.Path,
				Severity:     types.SeverityError,
				Suggestion:   path.Join(path.Dir(file), bp.ID, path.Base(file)),
			})
		}
	}
}

func detectAPIRoutes(bp *types.Blueprint, pc *types.ProjectContext, report *types.ConflictReport) {
	existing := make(map[string]string, len(pc.APIRoutes))
	for _, r := range pc.APIRoutes {
		existing[projectctx.NormalizeAPIRoute(r)] = r
	}
	for _, r := range bp.APIRoutes {
		match, ok := existing[projectctx.NormalizeAPIRoute(r.Path)]
		if !ok {
			continue
		}
		report.Conflicts = append(report.Conflicts, types.Conflict{
			Type:         types.ConflictAPIRoute,
			ExistingName: match,
			ProposedName: r.Path,
			Severity:     types.SeverityError,
			Suggestion:   "/api/" + bp.ID + strings.TrimPrefix("/"+strings.TrimPrefix(r.Path, "/"), "/api"),
		})
	}
}
