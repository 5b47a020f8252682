package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/physics"
)

func TestEvaluateDetectorsPositionIsXOnly(t *testing.T) {
	ctx := &Context{
		world: physics.World{Particles: []physics.Particle{
			{Name: "a", Pos: physics.Vec2{X: 2, Y: 9}, Mass: 1},
			{Name: "b", Pos: physics.Vec2{X: 5, Y: 13}, Mass: 1},
		}},
		detectors: []ast.DetectorDecl{
			{Name: "ax", Kind: ast.Position{Particle: "a"}},
			{Name: "gap", Kind: ast.Distance{A: "a", B: "b"}},
		},
	}

	vals, err := EvaluateDetectors(ctx)
	if err != nil {
		t.Fatalf("detectors: %v", err)
	}
	if vals[0].Name != "ax" || vals[0].Value != 2 {
		t.Errorf("position detector = %+v, want x-coordinate 2", vals[0])
	}
	if vals[1].Name != "gap" || vals[1].Value != 5 {
		t.Errorf("distance detector = %+v, want 5", vals[1])
	}
}

func TestEvaluateDetectorsUnknownParticle(t *testing.T) {
	ctx := &Context{
		detectors: []ast.DetectorDecl{{Name: "x", Kind: ast.Position{Particle: "ghost"}}},
	}
	_, err := EvaluateDetectors(ctx)
	if !errors.Is(err, ErrUnknownParticle) {
		t.Fatalf("err = %v, want ErrUnknownParticle", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(cctx, `
particle a at (0, 0) mass 1.0
simulate dt = 0.01 steps = 100
`)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
