package server

import (
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/checkpoint"
	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/planning"
	"github.com/jonathan/module-builder/internal/types"
	"github.com/jonathan/module-builder/internal/validation"
)

// maxBlueprintBytes bounds a submitted Blueprint document.
const maxBlueprintBytes = 1 << 20

// readBlueprint reads the request body and its format: YAML when the
// Content-Type or ?format says so, JSON otherwise.
func readBlueprint(w http.ResponseWriter, r *http.Request) ([]byte, blueprint.Format, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBlueprintBytes))
	if err != nil {
		return nil, "", &ErrValidation{Field: "body", Message: err.Error()}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, "", &ErrValidation{Field: "body", Message: "blueprint document is required"}
	}
	format := blueprint.FormatJSON
	if strings.EqualFold(r.URL.Query().Get("format"), "yaml") || strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = blueprint.FormatYAML
	}
	return data, format, nil
}

// ValidateResponse is the body of POST /blueprints/validate.
type ValidateResponse struct {
	*validation.Result
	BlueprintID string `json:"blueprint_id,omitempty"`
}

func (s *Server) validateRequest(w http.ResponseWriter, r *http.Request) (*validation.Result, bool) {
	data, format, err := readBlueprint(w, r)
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return s.blueprints.ValidateBytes(data, format), true
}

// handleValidateBlueprint validates a Blueprint document. An invalid
// document is still a 200; the result says why.
func (s *Server) handleValidateBlueprint(w http.ResponseWriter, r *http.Request) {
	res, ok := s.validateRequest(w, r)
	if !ok {
		return
	}
	resp := ValidateResponse{Result: res}
	if res.Blueprint != nil {
		resp.BlueprintID = res.Blueprint.ID
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handlePlanBlueprint validates a Blueprint and returns its execution plan.
func (s *Server) handlePlanBlueprint(w http.ResponseWriter, r *http.Request) {
	res, ok := s.validateRequest(w, r)
	if !ok {
		return
	}
	if err := res.Err(); err != nil {
		s.jsonResponse(w, HTTPStatus(err), res)
		return
	}
	plan, err := planning.NewPlanner().Plan(res.Blueprint)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, plan)
}

// prepareOptions returns the base pipeline options for one preparation run.
// Runs over HTTP never write into the project.
func (s *Server) prepareOptions(path string) pipeline.Options {
	opts := s.pipeline
	opts.BlueprintPath = path
	opts.Policy = pipeline.PolicyPrepare
	opts.Store = s.store
	opts.Verbose = false
	opts.Out = log.Writer()
	return opts
}

// handlePrepareBlueprint runs the preparation phases and returns the report.
func (s *Server) handlePrepareBlueprint(w http.ResponseWriter, r *http.Request) {
	data, format, err := readBlueprint(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	path, dir, err := pipeline.StageBlueprint(data, format)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer os.RemoveAll(dir)

	rep, err := pipeline.Run(r.Context(), s.prepareOptions(path))
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if !rep.Success {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, rep)
}

// handlePrepareStream runs the preparation phases and streams one "layer"
// event per phase, then the report as "complete".
func (s *Server) handlePrepareStream(w http.ResponseWriter, r *http.Request) {
	data, format, err := readBlueprint(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	path, dir, err := pipeline.StageBlueprint(data, format)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer os.RemoveAll(dir)

	stream, err := newProgressStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.prepareOptions(path)
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := stream.Layer(event); err != nil {
			log.Printf("Error writing progress event: %v", err)
		}
	}

	rep, err := pipeline.Run(r.Context(), opts)
	if err != nil {
		log.Printf("Preparation run failed: %v", err)
		stream.Fail(err) //nolint:errcheck
		return
	}
	stream.Complete(rep) //nolint:errcheck
}

// handleListCheckpoints lists the checkpoints of the configured project,
// newest first.
func (s *Server) handleListCheckpoints(w http.ResponseWriter, _ *http.Request) {
	dir := s.pipeline.CheckpointDir
	if dir == "" {
		dir = pipeline.DefaultCheckpointDir(s.pipeline.ProjectRoot)
	}
	cps, err := checkpoint.NewManager(dir, s.pipeline.CheckpointRetain).Checkpoints()
	if err != nil {
		s.fail(w, err)
		return
	}
	if cps == nil {
		cps = []types.Checkpoint{}
	}
	s.jsonResponse(w, http.StatusOK, cps)
}
