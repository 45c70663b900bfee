package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jonathan/module-builder/internal/db"
)

// defaultRunLimit is the page size of GET /runs.
const defaultRunLimit = 50

type runsQuery struct {
	Limit int `validate:"gte=1,lte=500"`
}

// handleListRuns returns the most recent recorded runs.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "run history requires a data store")
		return
	}
	q := runsQuery{Limit: defaultRunLimit}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.fail(w, &ErrValidation{Field: "limit", Message: "must be an integer"})
			return
		}
		q.Limit = n
	}
	if err := s.validator.Struct(q); err != nil {
		s.fail(w, requestError(err))
		return
	}

	runs, err := s.store.ListRuns(r.Context(), q.Limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	if runs == nil {
		runs = []db.RunRecord{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

// handleGetRun returns one recorded run with its layers.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "run history requires a data store")
		return
	}
	id := r.PathValue("id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		err = &ErrRunNotFound{ID: id}
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}
