// Package schemas checks documents against the JSON Schemas embedded in the
// module builder.
package schemas

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	rootschemas "github.com/jonathan/module-builder/schemas"
)

var (
	mu       sync.Mutex
	compiled = map[string]*gojsonschema.Schema{}
)

// load compiles an embedded schema on first use.
func load(name string) (*gojsonschema.Schema, error) {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := compiled[name]; ok {
		return s, nil
	}
	data, err := rootschemas.FS.ReadFile(name)
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Check validates a JSON document against the named embedded schema. It
// returns *ViolationError when the document does not conform.
func Check(name string, doc []byte) error {
	s, err := load(name)
	if err != nil {
		return err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := &ViolationError{Schema: name}
	for _, desc := range result.Errors() {
		violations.Errors = append(violations.Errors, FieldError{
			Field:   fieldPath(desc.Field()),
			Rule:    desc.Type(),
			Message: desc.Description(),
		})
	}
	sort.SliceStable(violations.Errors, func(i, j int) bool {
		return violations.Errors[i].Field < violations.Errors[j].Field
	})
	return violations
}

// Blueprint validates canonical Blueprint JSON.
func Blueprint(doc []byte) error {
	return Check(rootschemas.Blueprint, doc)
}

// fieldPath turns "a.b.0.c" into "a.b[0].c".
func fieldPath(field string) string {
	if field == "" || field == "(root)" {
		return "(root)"
	}
	var sb strings.Builder
	for i, part := range strings.Split(field, ".") {
		switch {
		case isIndex(part):
			sb.WriteString("[" + part + "]")
		case i > 0:
			sb.WriteString("." + part)
		default:
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
