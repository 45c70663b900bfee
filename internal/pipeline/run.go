// Package pipeline orchestrates the module build: it runs the registered
// phases in order, records one LayerResult per phase and always writes the
// final report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/module-builder/internal/checkpoint"
	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/integration"
	"github.com/jonathan/module-builder/internal/llm"
	"github.com/jonathan/module-builder/internal/observability"
	"github.com/jonathan/module-builder/internal/pipeline/steps"
	"github.com/jonathan/module-builder/internal/report"
	"github.com/jonathan/module-builder/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Layer   float64 `json:"layer"`
	Step    string  `json:"step"`
	Name    string  `json:"name"`
	Message string  `json:"message"`
	RunID   string  `json:"run_id,omitempty"`
	Content any     `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for running the pipeline
type Options struct {
	BlueprintPath string
	ProjectRoot   string
	OutputDir     string
	CheckpointDir string
	// CheckpointRetain defaults to checkpoint.DefaultRetain.
	CheckpointRetain int
	// ContextFile reuses a saved ProjectContext instead of reading the tree.
	ContextFile       string
	RegistryFile      string
	HealthBaseURL     string
	Policy            Policy
	StrictCheckpoints bool
	Verbose           bool

	// Store is optional; without it schema application is skipped.
	Store db.Store
	// LLM is optional; without it the documentation phase is skipped.
	LLM        llm.Client
	HTTPClient *http.Client
	Out        io.Writer
	OnProgress ProgressCallback
}

// DefaultOutputDir is where per-Blueprint output directories are created.
const DefaultOutputDir = "output"

// DefaultCheckpointDir is the checkpoint ring of the project at root.
func DefaultCheckpointDir(root string) string {
	if root == "" {
		root = "."
	}
	return filepath.Join(root, ".module-builder", "checkpoints")
}

func (o *Options) setDefaults() {
	if o.ProjectRoot == "" {
		o.ProjectRoot = "."
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.CheckpointDir == "" {
		o.CheckpointDir = DefaultCheckpointDir(o.ProjectRoot)
	}
	if o.CheckpointRetain <= 0 {
		o.CheckpointRetain = checkpoint.DefaultRetain
	}
	if o.RegistryFile == "" {
		o.RegistryFile = integration.DefaultRegistryFile
	}
	if o.Policy == "" {
		o.Policy = PolicyPrepare
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// state carries phase outputs to later phases within one run.
type state struct {
	opts        *Options
	runID       string
	printer     *observability.Printer
	outDir      string
	bp          *types.Blueprint
	pc          *types.ProjectContext
	plan        *types.ExecutionPlan
	checkpoints *checkpoint.Manager
	checkpoint  *types.Checkpoint
	artifacts   []types.Artifact
	writer      *integration.Writer
	written     []string
}

// outcome is what a phase reports besides its error.
type outcome struct {
	output      any
	review      bool
	skipped     bool
	remediation string
}

type phaseFunc func(ctx context.Context, s *state, ph steps.Phase) (outcome, error)

var phaseFuncs = map[string]phaseFunc{
	steps.Validate:    validatePhase,
	steps.Feasibility: feasibilityPhase,
	steps.Context:     contextPhase,
	steps.Conflicts:   conflictsPhase,
	steps.Plan:        planPhase,
	steps.Checkpoint:  checkpointPhase,
	steps.Emit:        emitPhase,
	steps.ApplySchema: applySchemaPhase,
	steps.Write:       writePhase,
	steps.Register:    registerPhase,
	steps.Health:      healthPhase,
	steps.Docs:        docsPhase,
}

// Run executes the phases selected by opts.Policy. The returned report is
// never nil and has already been written to the output directory. Under
// PolicyFull a failed gating phase is also returned as a *PhaseError.
//
//nolint:errcheck // progress lines go to the terminal; write errors are not recoverable
func Run(ctx context.Context, opts Options) (*types.RunReport, error) {
	opts.setDefaults()
	s := &state{
		opts:        &opts,
		runID:       uuid.NewString(),
		printer:     observability.NewPrinter(opts.Out),
		checkpoints: checkpoint.NewManager(opts.CheckpointDir, opts.CheckpointRetain),
		writer:      integration.NewWriter(opts.ProjectRoot),
	}
	rep := &types.RunReport{
		RunID:     s.runID,
		Policy:    string(opts.Policy),
		StartedAt: time.Now().UTC(),
		Layers:    []types.LayerResult{},
	}

	phases := steps.Phases(opts.Policy == PolicyPrepare)
	completed := make(map[string]bool, len(phases))
	halted := false
	var runErr error

	for i, ph := range phases {
		fmt.Fprintf(opts.Out, "Layer %d/%d: %s...\n", i+1, len(phases), ph.Message)

		res, err := s.runPhase(ctx, ph, completed)
		rep.Layers = append(rep.Layers, res)
		completed[ph.Key] = res.Success
		if opts.Verbose {
			s.printer.PrintLayer(res)
		}
		s.progress(ph, res)

		if err == nil {
			continue
		}
		if !ph.Gating {
			fmt.Fprintf(opts.Out, "Warning: %s failed: %v\n", ph.Name, err)
			continue
		}
		halted = true
		rep.AbortReason = fmt.Sprintf("%s failed: %s", ph.Name, res.Error)
		if opts.Policy == PolicyFull {
			rep.Aborted = true
			runErr = &PhaseError{Layer: ph.Layer, Phase: ph.Name, Cause: err}
		}
		break
	}
	if halted {
		// Files written before the halt are not kept.
		if err := s.writer.Rollback(); err != nil {
			log.Printf("Warning: rollback incomplete: %v", err)
		}
	} else {
		s.writer.Commit()
	}

	rep.Success = !halted
	rep.CanProceed = true
	for _, ph := range steps.Phases(true) {
		if !completed[ph.Key] {
			rep.CanProceed = false
		}
	}
	if s.bp != nil {
		rep.BlueprintID = s.bp.ID
	}
	if s.checkpoint != nil {
		rep.CheckpointID = s.checkpoint.ID
	}
	rep.Artifacts = s.artifacts
	rep.FinishedAt = time.Now().UTC()

	s.finish(ctx, rep)
	if opts.Verbose {
		s.printer.PrintSummary(rep)
	}
	return rep, runErr
}

// Prepare runs the preparation phases only.
func Prepare(ctx context.Context, opts Options) (*types.RunReport, error) {
	opts.Policy = PolicyPrepare
	return Run(ctx, opts)
}

func (s *state) runPhase(ctx context.Context, ph steps.Phase, completed map[string]bool) (types.LayerResult, error) {
	start := time.Now()
	res := types.LayerResult{Layer: ph.Layer, Name: ph.Name, Timestamp: start.UTC()}

	err := ctx.Err()
	if err == nil {
		err = steps.ValidateDependencies(completed, ph.Key)
	}
	var out outcome
	if err == nil {
		out, err = phaseFuncs[ph.Key](ctx, s, ph)
	}

	res.DurationMS = time.Since(start).Milliseconds()
	res.Output = out.output
	res.Skipped = out.skipped
	res.NeedsHumanReview = out.review
	res.Remediation = out.remediation
	if err != nil {
		res.Error = err.Error()
		if res.Remediation == "" {
			res.Remediation = remediation(err)
		}
		if !ph.Gating {
			res.NeedsHumanReview = true
		}
		return res, err
	}
	res.Success = true
	return res, nil
}

func (s *state) progress(ph steps.Phase, res types.LayerResult) {
	if s.opts.OnProgress == nil {
		return
	}
	msg := ph.Name + " passed"
	switch {
	case res.Skipped:
		msg = ph.Name + " skipped"
	case !res.Success:
		msg = ph.Name + " failed: " + res.Error
	}
	s.opts.OnProgress(ProgressEvent{
		Layer:   ph.Layer,
		Step:    ph.Key,
		Name:    ph.Name,
		Message: msg,
		RunID:   s.runID,
		Content: res.Output,
	})
}

// finish writes the report files and records the run in the store. Both are
// best effort; failures are logged.
//
//nolint:errcheck // progress lines go to the terminal; write errors are not recoverable
func (s *state) finish(ctx context.Context, rep *types.RunReport) {
	dir := s.outDir
	if dir == "" {
		name := strings.TrimSuffix(filepath.Base(s.opts.BlueprintPath), filepath.Ext(s.opts.BlueprintPath))
		if name == "" || name == "." {
			name = "unnamed"
		}
		dir = filepath.Join(s.opts.OutputDir, name)
	}
	rep.OutputDir = dir

	paths, err := report.Write(dir, rep)
	if err != nil {
		log.Printf("Warning: %v", err)
	} else {
		fmt.Fprintf(s.opts.Out, "Report written to %s\n", paths.Markdown)
	}

	if s.opts.Store != nil {
		if err := s.opts.Store.RecordRun(context.WithoutCancel(ctx), rep); err != nil {
			log.Printf("Warning: failed to record run %s: %v", rep.RunID, err)
		}
	}
}

// Output returns the output of the phase with the given key when it has
// type T.
func Output[T any](rep *types.RunReport, key string) (T, bool) {
	var zero T
	ph, ok := steps.Lookup(key)
	if !ok {
		return zero, false
	}
	for _, l := range rep.Layers {
		if l.Name == ph.Name {
			v, ok := l.Output.(T)
			return v, ok
		}
	}
	return zero, false
}
