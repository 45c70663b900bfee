package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/module-builder/internal/checkpoint"
	"github.com/jonathan/module-builder/internal/conflicts"
	"github.com/jonathan/module-builder/internal/content"
	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/emit"
	"github.com/jonathan/module-builder/internal/feasibility"
	"github.com/jonathan/module-builder/internal/health"
	"github.com/jonathan/module-builder/internal/integration"
	"github.com/jonathan/module-builder/internal/llm"
	"github.com/jonathan/module-builder/internal/pipeline/steps"
	"github.com/jonathan/module-builder/internal/planning"
	"github.com/jonathan/module-builder/internal/projectctx"
	"github.com/jonathan/module-builder/internal/types"
	"github.com/jonathan/module-builder/internal/validation"
)

// ContextFileName is the inventory snapshot written to the output directory.
const ContextFileName = "context.json"

// ContextSummary is the output of the context extraction phase.
type ContextSummary struct {
	Reused       bool     `json:"reused"`
	Tables       int      `json:"tables"`
	Routes       int      `json:"routes"`
	Components   int      `json:"components"`
	Files        int      `json:"files"`
	Capabilities int      `json:"capabilities"`
	Skipped      []string `json:"skipped,omitempty"`
}

// SchemaResult is the output of the schema application phase.
type SchemaResult struct {
	Tables []string `json:"tables"`
}

func validatePhase(_ context.Context, s *state, _ steps.Phase) (outcome, error) {
	v, err := validation.New()
	if err != nil {
		return outcome{}, err
	}
	res := v.ValidateFile(s.opts.BlueprintPath)
	s.bp = res.Blueprint
	if s.bp != nil && s.bp.ID != "" {
		s.outDir = filepath.Join(s.opts.OutputDir, s.bp.ID)
	}
	return outcome{output: res}, res.Err()
}

// projectContext reads the project once per run, or loads a saved snapshot.
func (s *state) projectContext(ctx context.Context) (*types.ProjectContext, bool, error) {
	if s.pc != nil {
		return s.pc, true, nil
	}
	if s.opts.ContextFile != "" {
		pc, err := projectctx.LoadFile(s.opts.ContextFile)
		if err != nil {
			return nil, false, err
		}
		s.pc = pc
		return pc, true, nil
	}

	readerOpts := []projectctx.Option{projectctx.WithProcessEnv()}
	if s.opts.Store != nil {
		readerOpts = append(readerOpts, projectctx.WithStore(s.opts.Store))
	}
	pc, err := projectctx.NewReader(s.opts.ProjectRoot, readerOpts...).Read(ctx)
	if err != nil {
		return nil, false, err
	}
	s.pc = pc
	return pc, false, nil
}

func feasibilityPhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	pc, _, err := s.projectContext(ctx)
	if err != nil {
		return outcome{}, err
	}
	analyzer := feasibility.NewAnalyzer(feasibility.DefaultOptions())
	rep := analyzer.Analyze(s.bp, pc)
	if s.opts.Verbose {
		s.printer.PrintFeasibility(rep)
	}
	return outcome{
		output:      rep,
		review:      feasibility.NeedsHumanReview(rep),
		remediation: analyzer.Advice(rep),
	}, feasibility.Err(rep)
}

func contextPhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	pc, reused, err := s.projectContext(ctx)
	if err != nil {
		return outcome{}, err
	}
	if err := os.MkdirAll(s.outDir, 0755); err != nil {
		return outcome{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := projectctx.WriteFile(filepath.Join(s.outDir, ContextFileName), pc); err != nil {
		return outcome{}, err
	}
	return outcome{output: &ContextSummary{
		Reused:       reused,
		Tables:       len(pc.Tables),
		Routes:       len(pc.Routes),
		Components:   len(pc.Components),
		Files:        len(pc.Files),
		Capabilities: len(pc.Capabilities),
		Skipped:      pc.Skipped,
	}}, nil
}

func conflictsPhase(_ context.Context, s *state, _ steps.Phase) (outcome, error) {
	rep := conflicts.NewDetector(nil).Detect(s.bp, s.pc)
	if s.opts.Verbose {
		s.printer.PrintConflicts(rep)
	}
	return outcome{output: rep, review: conflicts.NeedsHumanReview(rep)}, conflicts.Err(rep)
}

func planPhase(_ context.Context, s *state, _ steps.Phase) (outcome, error) {
	plan, err := planning.NewPlanner().Plan(s.bp)
	if err != nil {
		return outcome{}, err
	}
	s.plan = plan
	if s.opts.Verbose {
		s.printer.PrintPlan(plan)
	}
	return outcome{output: plan}, nil
}

// checkpointPhase never blocks on checkpoint I/O unless StrictCheckpoints is
// set; a lock held by another run always blocks.
func checkpointPhase(ctx context.Context, s *state, ph steps.Phase) (outcome, error) {
	cp, err := s.checkpoints.Create(ctx, s.bp, s.pc, ph.Layer)
	if cp != nil {
		s.checkpoint = cp
	}
	if err == nil {
		return outcome{output: cp}, nil
	}

	var ioErr *checkpoint.IOError
	if errors.As(err, &ioErr) && !s.opts.StrictCheckpoints {
		log.Printf("Warning: %v", err)
		return outcome{
			output:      cp,
			review:      true,
			remediation: fmt.Sprintf("checkpoint %s did not complete (%v); check %s", ioErr.Op, ioErr.Cause, s.checkpoints.Dir()),
		}, nil
	}
	return outcome{output: cp}, err
}

func emitPhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	artifacts, err := emit.NewGenerator().Generate(ctx, s.bp, s.plan)
	if err != nil {
		return outcome{}, err
	}
	if err := emit.WriteAll(s.outDir, artifacts); err != nil {
		return outcome{}, err
	}
	s.artifacts = artifacts
	return outcome{output: artifacts}, nil
}

func applySchemaPhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	if s.opts.Store == nil {
		return outcome{skipped: true, remediation: "no data store configured; apply migration.sql manually"}, nil
	}
	var migration string
	for _, a := range s.artifacts {
		if a.Kind == types.ArtifactMigration {
			migration = a.Content
			break
		}
	}
	if migration == "" {
		return outcome{}, errors.New("no migration artifact was emitted")
	}

	if err := s.opts.Store.ApplySchema(ctx, migration); err != nil {
		return outcome{}, err
	}
	existing, err := s.opts.Store.ListTables(ctx)
	if err != nil {
		return outcome{}, err
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[strings.ToLower(t)] = true
	}
	res := &SchemaResult{}
	var missing []string
	for _, t := range s.bp.Database.NewTables {
		if have[strings.ToLower(t.Name)] {
			res.Tables = append(res.Tables, t.Name)
		} else {
			missing = append(missing, t.Name)
		}
	}
	if len(missing) > 0 {
		return outcome{output: res}, &db.ExternalCallError{
			Op:    "apply schema",
			Cause: fmt.Errorf("tables missing after migration: %s", strings.Join(missing, ", ")),
		}
	}
	return outcome{output: res}, nil
}

func writePhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	res, err := s.writer.Apply(ctx, integration.PlanWrites(s.artifacts))
	if err != nil {
		return outcome{}, err
	}
	s.written = append(s.written, res.Written()...)
	return outcome{output: res}, nil
}

func registerPhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	op := integration.RegistryOp(s.opts.RegistryFile, s.bp, s.artifacts)
	res, err := s.writer.Apply(ctx, []integration.FileOp{op})
	if err != nil {
		return outcome{}, err
	}
	s.written = append(s.written, res.Written()...)
	s.writer.Commit()

	if s.checkpoint != nil {
		if err := s.checkpoints.MarkApplied(ctx, s.checkpoint.ID, s.written); err != nil {
			log.Printf("Warning: failed to update checkpoint %s: %v", s.checkpoint.ID, err)
		}
	}
	return outcome{output: res}, nil
}

func healthPhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	if s.opts.HealthBaseURL == "" || len(s.bp.Routes) == 0 {
		return outcome{skipped: true}, nil
	}
	rep, err := health.NewProber(s.opts.HealthBaseURL, s.opts.HTTPClient).Probe(ctx, s.bp.Routes)
	if err != nil {
		return outcome{output: rep}, err
	}
	if !rep.Healthy() {
		problems := rep.Problems()
		return outcome{output: rep}, fmt.Errorf("%d page(s) unhealthy: %s", len(problems), strings.Join(problems, "; "))
	}
	return outcome{output: rep}, nil
}

func docsPhase(ctx context.Context, s *state, _ steps.Phase) (outcome, error) {
	if s.opts.LLM == nil {
		return outcome{skipped: true}, nil
	}
	a, err := content.NewGenerator(s.opts.LLM).Readme(ctx, s.bp, s.artifacts)
	if err != nil {
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			return outcome{}, errors.New(pe.Message())
		}
		return outcome{}, err
	}
	if err := emit.WriteAll(s.outDir, []types.Artifact{a}); err != nil {
		return outcome{}, err
	}
	s.artifacts = append(s.artifacts, a)
	return outcome{output: a}, nil
}

// remediation suggests a fix for a failed phase.
func remediation(err error) string {
	var (
		structural *validation.StructuralError
		blocker    *feasibility.BlockerError
		conflict   *conflicts.ConflictError
		invariant  *planning.InvariantViolation
		external   *db.ExternalCallError
		marker     *integration.MarkerNotFoundError
		write      *integration.WriteError
		dep        *steps.DependencyError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the run was cancelled; run it again"
	case errors.As(err, &structural):
		return "fix the listed blueprint fields and run again"
	case errors.As(err, &blocker):
		return "resolve the blockers: " + strings.Join(blocker.Blockers, "; ")
	case errors.As(err, &conflict):
		var fixes []string
		for _, c := range conflict.Conflicts {
			if c.Suggestion != "" {
				fixes = append(fixes, fmt.Sprintf("rename %s to %s", c.ProposedName, c.Suggestion))
			}
		}
		if len(fixes) == 0 {
			return "choose names and paths that do not collide with the project"
		}
		return strings.Join(fixes, "; ")
	case errors.As(err, &invariant):
		return "the planner produced an inconsistent plan; report this with the blueprint attached"
	case errors.As(err, &external):
		return "check the data store connection; the migration is safe to re-apply"
	case errors.As(err, &marker):
		return fmt.Sprintf("add the line %q to %s", marker.Marker, marker.Path)
	case errors.As(err, &write):
		if write.RolledBack {
			return fmt.Sprintf("fix %s and run again; earlier writes were rolled back", write.Path)
		}
		return fmt.Sprintf("fix %s and restore the project from checkpoint", write.Path)
	case errors.Is(err, checkpoint.ErrLocked):
		return "another run holds the checkpoint lock; wait for it to finish"
	case errors.As(err, &dep):
		return "an earlier phase did not succeed"
	}
	return ""
}
