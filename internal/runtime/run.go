package runtime

import (
	"context"
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/analysis"
	"github.com/kinetic-lang/kinetic/internal/diag"
	"github.com/kinetic-lang/kinetic/internal/elab"
	"github.com/kinetic-lang/kinetic/internal/parser"
)

// Result is the output of a batch run: the detector values at the final
// step.
type Result struct {
	Detectors []DetectorValue
}

// BuildContext runs the front half of the pipeline — parse, analyze,
// elaborate, re-analyze, build — and returns a simulation ready to step.
// The diagnostic list is returned even on success so callers can surface
// warnings; any Error diagnostic comes back alongside a non-nil error and
// no context.
func BuildContext(source string) (*Context, diag.List, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, nil, err
	}

	diags := analysis.Analyze(prog)
	if diags.HasErrors() {
		return nil, diags, analysisErr(diags)
	}

	globals, elabDiags, err := elab.Elaborate(prog)
	diags = append(diags, elabDiags...)
	if err != nil {
		return nil, diags, err
	}
	if elabDiags.HasErrors() {
		return nil, diags, analysisErr(elabDiags)
	}

	post := analysis.Analyze(prog)
	diags = append(diags, post...)
	if post.HasErrors() {
		return nil, diags, analysisErr(post)
	}

	ctx, err := Build(prog, globals)
	if err != nil {
		return nil, diags, err
	}
	return ctx, diags, nil
}

func analysisErr(diags diag.List) error {
	return fmt.Errorf("%w: %s", ErrAnalysis, diags.Errors()[0].Message)
}

// Run executes a whole program start to finish and reads its detectors.
// Cancellation is checked once per simulation step.
func Run(ctx context.Context, source string) (*Result, error) {
	sim, _, err := BuildContext(source)
	if err != nil {
		return nil, err
	}

	for !sim.Done() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		sim.Step()
	}

	detectors, err := EvaluateDetectors(sim)
	if err != nil {
		return nil, err
	}
	return &Result{Detectors: detectors}, nil
}
