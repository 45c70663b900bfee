package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/modules"
	"github.com/jonathan/module-builder/internal/server/middleware"
)

// maxRowBytes bounds a submitted row.
const maxRowBytes = 64 << 10

// listQuery carries the pagination and filter parameters of a module list.
type listQuery struct {
	Page     int    `validate:"gte=0"`
	PageSize int    `validate:"gte=0,lte=100"`
	Search   string `validate:"max=200"`
	Status   string `validate:"max=64"`
}

// requestError turns validator errors into an *ErrValidation naming the
// first failing field.
func requestError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed %s", fe.Tag())}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}

func parseListQuery(r *http.Request) (listQuery, error) {
	values := r.URL.Query()
	q := listQuery{Search: values.Get("search"), Status: values.Get("status")}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"page_size", &q.PageSize}} {
		v := values.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, &ErrValidation{Field: p.name, Message: "must be an integer"}
		}
		*p.dst = n
	}
	return q, nil
}

// module resolves the route's module and the request's tenant. It writes
// the error response itself and reports false on failure.
func (s *Server) module(w http.ResponseWriter, r *http.Request) (modules.Module, string, bool) {
	tenant, err := middleware.TenantFrom(r)
	if err != nil {
		s.fail(w, db.ErrMissingTenant)
		return nil, "", false
	}
	m, err := s.modules.Get(r.PathValue("module"))
	if err != nil {
		s.fail(w, err)
		return nil, "", false
	}
	return m, tenant, true
}

func decodeRow(w http.ResponseWriter, r *http.Request) (db.Row, error) {
	var row db.Row
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRowBytes)).Decode(&row); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON object: " + err.Error()}
	}
	if row == nil {
		return nil, &ErrValidation{Field: "body", Message: "a JSON object is required"}
	}
	return row, nil
}

// handleListModules lists the registered module names.
func (s *Server) handleListModules(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string][]string{"modules": s.modules.Names()})
}

// handleListRows returns one page of the tenant's rows.
func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	m, tenant, ok := s.module(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err == nil {
		if verr := s.validator.Struct(q); verr != nil {
			err = requestError(verr)
		}
	}
	if err != nil {
		s.fail(w, err)
		return
	}

	page, err := m.List(r.Context(), tenant, db.ListOptions{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   q.Search,
		Status:   q.Status,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, page)
}

// handleGetRow returns one of the tenant's rows.
func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	m, tenant, ok := s.module(w, r)
	if !ok {
		return
	}
	row, err := m.Get(r.Context(), tenant, r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, row)
}

// handleCreateRow inserts a row owned by the tenant.
func (s *Server) handleCreateRow(w http.ResponseWriter, r *http.Request) {
	m, tenant, ok := s.module(w, r)
	if !ok {
		return
	}
	row, err := decodeRow(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	created, err := m.Create(r.Context(), tenant, row)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleUpdateRow applies a partial update to one of the tenant's rows.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	m, tenant, ok := s.module(w, r)
	if !ok {
		return
	}
	patch, err := decodeRow(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	updated, err := m.Update(r.Context(), tenant, r.PathValue("id"), patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, updated)
}

// handleDeleteRow removes one of the tenant's rows.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	m, tenant, ok := s.module(w, r)
	if !ok {
		return
	}
	if err := m.Delete(r.Context(), tenant, r.PathValue("id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
