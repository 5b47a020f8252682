package runtime

import (
	"errors"
	"strings"
	"testing"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

func num(v float64) ast.Expr { return ast.NumberLit{Value: v} }

func minimalProgram(particles ...string) *ast.Program {
	prog := &ast.Program{
		Simulate: &ast.SimulateDecl{Dt: num(0.01), Steps: num(10)},
	}
	for i, name := range particles {
		prog.Particles = append(prog.Particles, ast.ParticleDecl{
			Name: name, X: num(float64(i)), Y: num(0), Mass: num(1),
		})
	}
	return prog
}

func TestBuildAssignsDenseIndices(t *testing.T) {
	prog := minimalProgram("a", "b", "c")
	prog.Forces = append(prog.Forces, ast.ForceDecl{
		A: "c", B: "a", Kind: ast.Gravity{G: num(1)},
	})

	ctx, err := Build(prog, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := ctx.world.Particles[i].Name; got != want {
			t.Errorf("particle %d = %q, want %q", i, got, want)
		}
	}
	f := ctx.world.Forces[0]
	if f.A != 2 || f.B != 0 {
		t.Errorf("force endpoints = (%d, %d), want (2, 0)", f.A, f.B)
	}
}

func TestBuildUnknownParticle(t *testing.T) {
	prog := minimalProgram("a")
	prog.Forces = append(prog.Forces, ast.ForceDecl{
		A: "a", B: "ghost", Kind: ast.Gravity{G: num(1)},
	})

	_, err := Build(prog, nil)
	if !errors.Is(err, ErrUnknownParticle) {
		t.Fatalf("err = %v, want ErrUnknownParticle", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q should name the missing particle", err)
	}
}

func TestBuildGlobalLetsReachDeclarations(t *testing.T) {
	prog := minimalProgram()
	prog.Particles = append(prog.Particles, ast.ParticleDecl{
		Name: "a", X: ast.VarRef{Name: "w"}, Y: num(0), Mass: num(1),
	})

	ctx, err := Build(prog, map[string]float64{"w": 4.5})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := ctx.world.Particles[0].Pos.X; got != 4.5 {
		t.Errorf("x = %v, want 4.5", got)
	}
}

func TestBuildStepCountValidation(t *testing.T) {
	tests := []struct {
		name  string
		steps float64
	}{
		{"zero", 0},
		{"negative", -3},
		{"fractional", 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := minimalProgram("a")
			prog.Simulate.Steps = num(tt.steps)
			_, err := Build(prog, nil)
			if !errors.Is(err, ErrBadStepCount) {
				t.Fatalf("steps=%v: err = %v, want ErrBadStepCount", tt.steps, err)
			}
			if !strings.Contains(err.Error(), "got") {
				t.Errorf("error %q should report the offending value", err)
			}
		})
	}
}

func TestBuildCycleCountValidation(t *testing.T) {
	for _, cycles := range []float64{-1, 1.5} {
		prog := minimalProgram("a")
		prog.Loops = append(prog.Loops, ast.LoopDecl{
			Kind: ast.ForCycles{
				Cycles: num(cycles), Frequency: num(1), Damping: num(0), Target: "a",
			},
		})
		_, err := Build(prog, nil)
		if !errors.Is(err, ErrBadCycleCount) {
			t.Errorf("cycles=%v: err = %v, want ErrBadCycleCount", cycles, err)
		}
	}
}

func TestBuildZeroCyclesIsValid(t *testing.T) {
	prog := minimalProgram("a")
	prog.Loops = append(prog.Loops, ast.LoopDecl{
		Kind: ast.ForCycles{
			Cycles: num(0), Frequency: num(1), Damping: num(0), Target: "a",
		},
	})
	if _, err := Build(prog, nil); err != nil {
		t.Fatalf("zero cycles must build, got %v", err)
	}
}

func TestContextAccessors(t *testing.T) {
	prog := minimalProgram("a")
	ctx, err := Build(prog, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ctx.MaxSteps() != 10 || ctx.StepCount() != 0 || ctx.Done() {
		t.Fatalf("fresh context: steps %d/%d done=%v", ctx.StepCount(), ctx.MaxSteps(), ctx.Done())
	}
	ctx.Step()
	if ctx.StepCount() != 1 {
		t.Errorf("after one step, StepCount = %d", ctx.StepCount())
	}
	if got, want := ctx.Time(), 0.01; got != want {
		t.Errorf("Time = %v, want %v", got, want)
	}

	snap := ctx.Snapshot()
	if len(snap) != 1 || snap[0].Name != "a" || snap[0].Mass != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	for !ctx.Step() {
	}
	if !ctx.Done() || ctx.StepCount() != ctx.MaxSteps() {
		t.Errorf("context should finish at max steps, at %d/%d", ctx.StepCount(), ctx.MaxSteps())
	}
	if !ctx.Step() {
		t.Error("stepping a finished context must stay finished")
	}
}
