package modules

import (
	"fmt"
	"strings"
)

// UnknownModuleError is returned for a module name that is not registered.
type UnknownModuleError struct {
	Name string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown module %q", e.Name)
}

// DuplicateModuleError is returned when two modules share a name.
type DuplicateModuleError struct {
	Name string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %q registered more than once", e.Name)
}

// ValidationError lists the problems with a submitted row.
type ValidationError struct {
	Module   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid row: %s", e.Module, strings.Join(e.Problems, "; "))
}
