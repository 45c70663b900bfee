package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	slugPattern       = regexp.MustCompile(`^[a-z0-9-]+$`)
	identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// newRules builds the field validator used for Blueprint structs. Field names
// in reported namespaces are the JSON keys, not the Go names.
func newRules() (*validator.Validate, error) {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, &RuleSetupError{Rule: "slug", Cause: err}
	}
	if err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, &RuleSetupError{Rule: "identifier", Cause: err}
	}
	return v, nil
}

// describe turns a validator failure into a readable message keyed by the
// JSON path of the offending field.
func describe(fe validator.FieldError) string {
	path := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		parent := path
		if i := strings.LastIndex(path, "."); i >= 0 {
			parent = path[:i]
		} else {
			parent = "(root)"
		}
		return fmt.Sprintf("%s: missing required field: %s", parent, fe.Field())
	case "slug":
		return fmt.Sprintf("%s: %q must be a lowercase hyphen-delimited slug matching ^[a-z0-9-]+$", path, fe.Value())
	case "identifier":
		return fmt.Sprintf("%s: %q must match ^[a-z_][a-z0-9_]*$", path, fe.Value())
	case "startswith":
		return fmt.Sprintf("%s: %q must start with %q", path, fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of %s", path, fe.Value(), strings.ReplaceAll(fe.Param(), " ", "/"))
	default:
		return fmt.Sprintf("%s: failed %s rule", path, fe.Tag())
	}
}

// fieldPath drops the root struct name from a validator namespace:
// "Blueprint.routes[0].path" becomes "routes[0].path".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
