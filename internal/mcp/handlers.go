package mcp

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonathan/module-builder/internal/blueprint"
	"github.com/jonathan/module-builder/internal/checkpoint"
	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/planning"
	"github.com/jonathan/module-builder/internal/types"
	"github.com/jonathan/module-builder/internal/validation"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	base       pipeline.Options
	blueprints *validation.Validator
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(base pipeline.Options) (*Handlers, error) {
	v, err := validation.New()
	if err != nil {
		return nil, err
	}
	return &Handlers{base: base, blueprints: v}, nil
}

// DocumentRequest names a Blueprint by path or carries it inline.
type DocumentRequest struct {
	Path     string `json:"path,omitempty"`
	Document string `json:"document,omitempty"`
	Format   string `json:"format,omitempty"`
}

func (r DocumentRequest) check() error {
	if r.Path == "" && strings.TrimSpace(r.Document) == "" {
		return &RequestError{Message: "path or document is required"}
	}
	if r.Path != "" && r.Document != "" {
		return &RequestError{Message: "path and document are mutually exclusive"}
	}
	switch r.Format {
	case "", string(blueprint.FormatJSON), string(blueprint.FormatYAML):
		return nil
	default:
		return &RequestError{Message: "format must be json or yaml"}
	}
}

func (r DocumentRequest) format() blueprint.Format {
	if r.Format == string(blueprint.FormatYAML) {
		return blueprint.FormatYAML
	}
	return blueprint.FormatJSON
}

// ValidateResult is the output of blueprint_validate.
type ValidateResult struct {
	*validation.Result
	BlueprintID string `json:"blueprint_id,omitempty"`
}

func (h *Handlers) validate(req mcp.CallToolRequest) (*validation.Result, error) {
	input, err := decode[DocumentRequest](req)
	if err != nil {
		return nil, &RequestError{Message: err.Error()}
	}
	if err := input.check(); err != nil {
		return nil, err
	}
	if input.Path != "" {
		return h.blueprints.ValidateFile(input.Path), nil
	}
	return h.blueprints.ValidateBytes([]byte(input.Document), input.format()), nil
}

// HandleValidate handles blueprint_validate. An invalid Blueprint is a
// successful call whose result says why.
func (h *Handlers) HandleValidate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.validate(req)
	if err != nil {
		return errorResult(err), nil
	}
	out := ValidateResult{Result: res}
	if res.Blueprint != nil {
		out.BlueprintID = res.Blueprint.ID
	}
	return successResult(out)
}

// HandlePlan handles blueprint_plan.
func (h *Handlers) HandlePlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.validate(req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := res.Err(); err != nil {
		return errorResult(err), nil
	}
	plan, err := planning.NewPlanner().Plan(res.Blueprint)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(plan)
}

// HandlePrepare handles blueprint_prepare. The run report is returned even
// when a layer fails.
func (h *Handlers) HandlePrepare(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DocumentRequest](req)
	if err != nil {
		return errorResult(&RequestError{Message: err.Error()}), nil
	}
	if err := input.check(); err != nil {
		return errorResult(err), nil
	}

	path := input.Path
	if path == "" {
		staged, dir, err := pipeline.StageBlueprint([]byte(input.Document), input.format())
		if err != nil {
			return errorResult(err), nil
		}
		defer os.RemoveAll(dir)
		path = staged
	}

	opts := h.base
	opts.BlueprintPath = path
	opts.Verbose = false
	// stdout carries the protocol.
	opts.Out = log.Writer()
	rep, err := pipeline.Prepare(ctx, opts)
	if err != nil {
		return errorResult(err), nil
	}
	if err := ctx.Err(); err != nil {
		return errorResult(err), nil
	}
	return successResult(rep)
}

// CheckpointListResult is the output of checkpoint_list.
type CheckpointListResult struct {
	Dir         string             `json:"dir"`
	Checkpoints []types.Checkpoint `json:"checkpoints"`
}

// HandleListCheckpoints handles checkpoint_list.
func (h *Handlers) HandleListCheckpoints(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := h.base.CheckpointDir
	if dir == "" {
		dir = pipeline.DefaultCheckpointDir(h.base.ProjectRoot)
	}
	cps, err := checkpoint.NewManager(dir, h.base.CheckpointRetain).Checkpoints()
	if err != nil {
		return errorResult(err), nil
	}
	if cps == nil {
		cps = []types.Checkpoint{}
	}
	return successResult(CheckpointListResult{Dir: dir, Checkpoints: cps})
}
