package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/modules"
	"github.com/jonathan/module-builder/internal/validation"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{db.ErrMissingTenant, http.StatusUnauthorized},
		{fmt.Errorf("list: %w", db.ErrNotFound), http.StatusNotFound},
		{&ErrRunNotFound{ID: "x"}, http.StatusNotFound},
		{&modules.UnknownModuleError{Name: "x"}, http.StatusNotFound},
		{&modules.ValidationError{Module: "x", Problems: []string{"bad"}}, http.StatusBadRequest},
		{&ErrValidation{Field: "page", Message: "bad"}, http.StatusBadRequest},
		{db.ErrEmptyUpdate, http.StatusBadRequest},
		{&db.InvalidIdentifierError{Name: "x;"}, http.StatusBadRequest},
		{&validation.StructuralError{BlueprintID: "x", Errors: []string{"bad"}}, http.StatusUnprocessableEntity},
		{&db.ExternalCallError{Op: "select", Cause: errors.New("down")}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}
