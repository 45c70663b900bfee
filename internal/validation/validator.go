package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/schemas"
	"github.com/jonathan/module-builder/internal/types"
)

// requiredFields are the top-level keys every Blueprint must carry, in report order.
var requiredFields = []string{"id", "name", "description", "database"}

// Result is the outcome of validating one Blueprint document.
type Result struct {
	Valid     bool             `json:"valid"`
	Errors    []string         `json:"errors"`
	Warnings  []string         `json:"warnings"`
	Blueprint *types.Blueprint `json:"-"`
}

// Err returns a *StructuralError when the Blueprint is invalid.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	id := ""
	if r.Blueprint != nil {
		id = r.Blueprint.ID
	}
	return &StructuralError{BlueprintID: id, Errors: r.Errors}
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator runs the structural checks on Blueprint documents. It is safe for
// concurrent use.
type Validator struct {
	rules *validator.Validate
}

// New creates a Validator.
func New() (*Validator, error) {
	rules, err := newRules()
	if err != nil {
		return nil, err
	}
	return &Validator{rules: rules}, nil
}

// ValidateFile reads and validates a Blueprint document from disk. Read and
// decode failures are reported as validation errors.
func (v *Validator) ValidateFile(path string) *Result {
	doc, err := blueprint.ReadFile(path)
	if err != nil {
		return &Result{Errors: []string{err.Error()}, Warnings: []string{}}
	}
	return v.ValidateDocument(doc)
}

// ValidateBytes decodes and validates raw document bytes.
func (v *Validator) ValidateBytes(data []byte, format blueprint.Format) *Result {
	doc, err := blueprint.Decode(data, format)
	if err != nil {
		return &Result{Errors: []string{err.Error()}, Warnings: []string{}}
	}
	return v.ValidateDocument(doc)
}

// ValidateDocument checks a decoded document: required top-level fields, the
// shape constraints of the document schema, the id slug, the table list, each
// column descriptor, then routes, components and API routes. Only Errors make
// the result invalid.
func (v *Validator) ValidateDocument(doc *blueprint.Document) *Result {
	result := &Result{Errors: []string{}, Warnings: []string{}}

	for _, field := range requiredFields {
		if isAbsent(doc.Raw[field]) {
			result.errorf("missing required field: %s", field)
		}
	}

	if err := schemas.Blueprint(doc.JSON); err != nil {
		var schemaErr *schemas.ViolationError
		if !errors.As(err, &schemaErr) {
			result.errorf("schema check failed: %v", err)
			return result.finish()
		}
		for _, fe := range schemaErr.Errors {
			result.errorf("%s: %s", fe.Field, fe.Message)
		}
		return result.finish()
	}

	bp, err := doc.Blueprint()
	if err != nil {
		result.errorf("%v", err)
		return result.finish()
	}
	result.Blueprint = bp

	if len(bp.Database.NewTables) == 0 && !isAbsent(doc.Raw["database"]) {
		result.errorf("database.new_tables must be a non-empty list")
	}

	if err := v.rules.Struct(bp); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			result.errorf("field rules could not run: %v", err)
			return result.finish()
		}
		for _, fe := range fieldErrs {
			result.Errors = append(result.Errors, describe(fe))
		}
	}

	checkTables(bp, result)
	checkRouteUniqueness(bp, result)

	return result.finish()
}

func (r *Result) finish() *Result {
	r.Valid = len(r.Errors) == 0
	return r
}

// checkTables enforces the per-table rules the field validator cannot express:
// a column list must exist and be non-empty, names and derived hook names are
// unique, and every column descriptor must parse. A column with no discernible
// type is only a warning.
func checkTables(bp *types.Blueprint, result *Result) {
	seen := make(map[string]bool)
	hooks := make(map[string]string)
	for i, table := range bp.Database.NewTables {
		where := fmt.Sprintf("database.new_tables[%d]", i)
		if table.Name != "" {
			where = fmt.Sprintf("table %s", table.Name)
			key := strings.ToLower(table.Name)
			if seen[key] {
				result.errorf("%s: declared more than once", where)
			} else if other, ok := hooks[blueprint.HookName(table.Name)]; ok {
				result.errorf("%s: generates the same hook name as table %s", where, other)
			}
			seen[key] = true
			hooks[blueprint.HookName(table.Name)] = table.Name
		}

		if table.Columns == nil && table.Fields == nil {
			result.errorf("database.new_tables[%d]: missing required field: columns", i)
			continue
		}
		if table.ColumnCount() == 0 {
			result.errorf("%s: must have at least one column", where)
			continue
		}
		if len(table.Columns) > 0 && len(table.Fields) > 0 {
			result.warnf("%s: both fields and columns are declared; fields take precedence", where)
		}

		checkColumns(table, where, result)
	}
}

func checkColumns(table types.TableSpec, where string, result *Result) {
	var missing *blueprint.MissingTypeError

	if len(table.Fields) > 0 {
		for _, f := range table.Fields {
			if _, err := blueprint.FromField(f); err != nil && errors.As(err, &missing) {
				result.warnf("%s: field %q has no type; it will be generated as text", where, f.Name)
			}
		}
		return
	}

	columns := 0
	for j, desc := range table.Columns {
		if strings.TrimSpace(desc) == "" {
			result.errorf("%s: column %d is empty", where, j)
			continue
		}
		if blueprint.IsTableConstraint(desc) {
			continue
		}
		columns++
		_, err := blueprint.ParseColumn(desc)
		switch {
		case err == nil:
		case errors.As(err, &missing):
			result.warnf("%s: column %q has no discernible type; it will be generated as text", where, missing.Column)
		default:
			result.errorf("%s: %v", where, err)
		}
	}
	if columns == 0 && len(table.Columns) > 0 {
		result.errorf("%s: must have at least one column", where)
	}
}

// checkRouteUniqueness flags routes, API routes and components declared twice.
// Plan step names are derived from them and must be unique.
func checkRouteUniqueness(bp *types.Blueprint, result *Result) {
	routes := make(map[string]bool)
	for _, r := range bp.Routes {
		if r.Path == "" {
			continue
		}
		if routes[r.Path] {
			result.errorf("routes: path %s declared more than once", r.Path)
		}
		routes[r.Path] = true
	}

	apis := make(map[string]bool)
	for _, r := range bp.APIRoutes {
		if r.Path == "" {
			continue
		}
		key := r.Method + " " + r.Path
		if apis[key] {
			result.errorf("api_routes: %s declared more than once", strings.TrimSpace(key))
		}
		apis[key] = true
	}

	components := make(map[string]bool)
	for _, c := range bp.Components {
		if c.Name == "" {
			continue
		}
		if components[c.Name] {
			result.errorf("components: %s declared more than once", c.Name)
		}
		components[c.Name] = true
	}
}

func isAbsent(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}
