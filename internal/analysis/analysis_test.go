package analysis

import (
	"strings"
	"testing"

	"github.com/kinetic-lang/kinetic/internal/diag"
	"github.com/kinetic-lang/kinetic/internal/parser"
)

func analyzeSource(t *testing.T, source string) diag.List {
	t.Helper()
	prog, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Analyze(prog)
}

func hasError(diags diag.List, substr string) bool {
	for _, d := range diags.Errors() {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarning(diags diag.List, substr string) bool {
	for _, d := range diags.Warnings() {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func TestAnalyzeValidProgram(t *testing.T) {
	diags := analyzeSource(t, `
let g = 1.0
particle a at (0, 0) mass 100.0
particle b at (5, 0) mass 1.0
force gravity(a, b) G = g
detect gap = distance(a, b)
simulate dt = 0.01 steps = 100
`)
	if diags.HasErrors() {
		t.Errorf("unexpected errors: %v", diags.Errors())
	}
}

func TestAnalyzeUnknownParticleInForce(t *testing.T) {
	diags := analyzeSource(t, `
particle a at (0, 0) mass 1.0
force gravity(a, b) G = 1.0
simulate dt = 0.01 steps = 10
`)
	if !hasError(diags, "Unknown particle: b") {
		t.Errorf("want unknown particle error naming b, got %v", diags)
	}
}

func TestAnalyzeDuplicates(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			"particle",
			"particle a at (0, 0) mass 1\nparticle a at (1, 0) mass 1\nsimulate dt = 0.1 steps = 1\n",
			"Duplicate particle name: a",
		},
		{
			"let",
			"let x = 1\nlet x = 2\nsimulate dt = 0.1 steps = 1\n",
			"Duplicate let binding: x",
		},
		{
			"function",
			"fn f() {\nreturn 1\n}\nfn f() {\nreturn 2\n}\nsimulate dt = 0.1 steps = 1\n",
			"Duplicate function name: f",
		},
		{
			"function versus let",
			"let f = 1\nfn f() {\nreturn 2\n}\nsimulate dt = 0.1 steps = 1\n",
			"Function 'f' conflicts with a let binding",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := analyzeSource(t, tt.source)
			if !hasError(diags, tt.want) {
				t.Errorf("want %q, got %v", tt.want, diags)
			}
		})
	}
}

func TestAnalyzeLetOrdering(t *testing.T) {
	diags := analyzeSource(t, `
let a = b + 1
let b = 2
simulate dt = 0.1 steps = 1
`)
	if !hasError(diags, "Unknown variable: b") {
		t.Errorf("forward let reference should be an error, got %v", diags)
	}
}

func TestAnalyzeCallChecks(t *testing.T) {
	diags := analyzeSource(t, `
fn f(x, y) {
	return x + y
}
let a = f(1)
let b = missing_fn(2)
let c = sin(1, 2)
simulate dt = 0.1 steps = 1
`)
	if !hasError(diags, "Function 'f' expects 2 argument(s), got 1") {
		t.Errorf("want argument count error, got %v", diags)
	}
	if !hasError(diags, "Unknown function: missing_fn") {
		t.Errorf("want unknown function error, got %v", diags)
	}
	if !hasError(diags, "'sin' expects 1 argument(s), got 2") {
		t.Errorf("want builtin arity error, got %v", diags)
	}
}

func TestAnalyzeShadowingIsWarning(t *testing.T) {
	diags := analyzeSource(t, `
let g = 9.8
fn f(g) {
	let g = 2
	return g
}
let out = f(1)
simulate dt = 0.1 steps = 1
`)
	if diags.HasErrors() {
		t.Fatalf("shadowing must not be an error: %v", diags.Errors())
	}
	if !hasWarning(diags, "Parameter 'g' shadows a global let") {
		t.Errorf("want parameter shadow warning, got %v", diags)
	}
	if !hasWarning(diags, "Let 'g' shadows an earlier binding") {
		t.Errorf("want local shadow warning, got %v", diags)
	}
}

func TestAnalyzeParticleFromFunctionBodyIsVisible(t *testing.T) {
	diags := analyzeSource(t, `
fn make() {
	particle p at (0, 0) mass 1.0
}
particle q at (1, 0) mass 1.0
make()
force gravity(p, q) G = 1.0
simulate dt = 0.01 steps = 10
`)
	if diags.HasErrors() {
		t.Errorf("particles declared in function bodies are candidates before elaboration: %v", diags.Errors())
	}
}

func TestAnalyzeBranchScopesAreIndependent(t *testing.T) {
	diags := analyzeSource(t, `
match 1 {
	1 => {
		let z = 5
	}
	2 => {
		let w = z
	}
}
simulate dt = 0.1 steps = 1
`)
	if !hasError(diags, "Unknown variable: z") {
		t.Errorf("arm bindings must not leak across arms, got %v", diags)
	}
}

func TestAnalyzeWildcardArms(t *testing.T) {
	diags := analyzeSource(t, `
match 1 {
	_ => {
		let a = 1
	}
	_ => {
		let b = 2
	}
}
simulate dt = 0.1 steps = 1
`)
	if !hasError(diags, "Multiple wildcard arms in match") {
		t.Errorf("want wildcard arm error, got %v", diags)
	}
}

func TestAnalyzeLoopAndWellTargets(t *testing.T) {
	diags := analyzeSource(t, `
particle a at (0, 0) mass 1.0
loop for 2 cycles with frequency 1.0 damping 0.0 on ghost {
	force push(ghost) magnitude 1.0 direction (1, 0)
}
well trap on phantom if position(phantom).x >= 5.0 depth 2.0
simulate dt = 0.01 steps = 10
`)
	if !hasError(diags, "Unknown particle: ghost") {
		t.Errorf("want loop target error, got %v", diags)
	}
	if !hasError(diags, "Unknown particle: phantom") {
		t.Errorf("want well target error, got %v", diags)
	}
}

func TestAnalyzeForVariableScope(t *testing.T) {
	diags := analyzeSource(t, `
fn f() {
	for i in 0..3 {
		let x = i
	}
	return i
}
let out = f()
simulate dt = 0.1 steps = 1
`)
	if !hasError(diags, "Unknown variable: i") {
		t.Errorf("induction variable must not escape the loop body, got %v", diags)
	}
}
