// Package server provides the HTTP host of the module builder: Blueprint
// validation, planning and preparation, run history, and tenant-scoped CRUD
// over the registered feature modules.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/modules"
	"github.com/jonathan/module-builder/internal/validation"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunNotFound indicates an unknown run id.
type ErrRunNotFound struct {
	ID string
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		requestErr *ErrValidation
		runErr     *ErrRunNotFound
		unknownErr *modules.UnknownModuleError
		rowErr     *modules.ValidationError
		structErr  *validation.StructuralError
		identErr   *db.InvalidIdentifierError
		storeErr   *db.ExternalCallError
	)
	switch {
	case errors.Is(err, db.ErrMissingTenant):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrNotFound), errors.As(err, &runErr), errors.As(err, &unknownErr):
		return http.StatusNotFound
	case errors.Is(err, db.ErrEmptyUpdate), errors.As(err, &requestErr), errors.As(err, &rowErr), errors.As(err, &identErr):
		return http.StatusBadRequest
	case errors.As(err, &structErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &storeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
