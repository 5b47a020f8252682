package eval

import (
	"errors"
	"math"
	"testing"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/parser"
)

func exprOf(t *testing.T, src string) ast.Expr {
	t.Helper()
	prog, err := parser.Parse("let _e = " + src + "\nsimulate dt = 0.1 steps = 1\n")
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return prog.Lets[0].Value
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"10 - 3 - 2", 5},
		{"8 / 4 / 2", 1},
		{"-3 + 5", 2},
		{"2 * (3 + 4)", 14},
		{"-(2 + 3)", -5},
		{"3 < 5", 1},
		{"5 < 3", 0},
		{"2 >= 2", 1},
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"2 + 3 > 4", 1},
		{"sqrt(16)", 4},
		{"sin(0)", 0},
		{"cos(0)", 1},
		{"clamp(5, 0, 3)", 3},
		{"clamp(-1, 0, 3)", 0},
		{"clamp(2, 0, 3)", 2},
	}
	sc := NewScope()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(exprOf(t, tt.expr), sc, nil)
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvalLookupOrder(t *testing.T) {
	sc := &Scope{
		Globals: map[string]float64{"x": 1, "g": 9.8},
		Params:  map[string]Value{"x": Num(2)},
		Locals:  map[string]float64{"x": 3},
	}
	got, err := Eval(exprOf(t, "x"), sc, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 3 {
		t.Errorf("local should shadow param and global, got %v", got)
	}

	delete(sc.Locals, "x")
	got, _ = Eval(exprOf(t, "x"), sc, nil)
	if got != 2 {
		t.Errorf("param should shadow global, got %v", got)
	}

	got, err = Eval(exprOf(t, "g * 2"), sc, nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if math.Abs(got-19.6) > 1e-12 {
		t.Errorf("got %v, want 19.6", got)
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want error
	}{
		{"division by zero", "1 / 0", ErrDivisionByZero},
		{"negative sqrt", "sqrt(-1)", ErrNegativeSqrt},
		{"undefined variable", "missing", ErrUndefined},
		{"arity", "sin(1, 2)", ErrArity},
		{"unknown function without caller", "f()", ErrUnknownFunc},
	}
	sc := NewScope()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(exprOf(t, tt.expr), sc, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEvalStringOperand(t *testing.T) {
	sc := &Scope{Params: map[string]Value{"name": Str("alpha")}}
	_, err := Eval(exprOf(t, "name + 1"), sc, nil)
	if !errors.Is(err, ErrStringOperand) {
		t.Errorf("err = %v, want string operand error", err)
	}
}

func TestEvalValueStrings(t *testing.T) {
	sc := &Scope{Params: map[string]Value{"name": Str("alpha")}}

	v, err := EvalValue(exprOf(t, `"beta"`), sc, nil)
	if err != nil || !v.IsStr || v.Str != "beta" {
		t.Errorf("string literal = %+v, %v", v, err)
	}

	v, err = EvalValue(exprOf(t, "name"), sc, nil)
	if err != nil || !v.IsStr || v.Str != "alpha" {
		t.Errorf("string param = %+v, %v", v, err)
	}

	v, err = EvalValue(exprOf(t, "1 + 1"), sc, nil)
	if err != nil || v.IsStr || v.Num != 2 {
		t.Errorf("numeric value = %+v, %v", v, err)
	}
}

type fixedCaller struct {
	ret      Value
	returned bool
	err      error
}

func (c fixedCaller) Call(name string, args []Value) (Value, bool, error) {
	return c.ret, c.returned, c.err
}

func TestEvalUserCall(t *testing.T) {
	sc := NewScope()

	got, err := Eval(exprOf(t, "f() + 1"), sc, fixedCaller{ret: Num(41), returned: true})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 42 {
		t.Errorf("got %v, want 42", got)
	}

	_, err = Eval(exprOf(t, "f()"), sc, fixedCaller{returned: false})
	if !errors.Is(err, ErrNoReturn) {
		t.Errorf("err = %v, want no-return error", err)
	}
}

func TestEvalLetsOrderAndDiagnostics(t *testing.T) {
	prog, err := parser.Parse(`
let a = 2
let b = a * 3
let c = later + 1
let later = 5
let big = 1e308 * 10
simulate dt = 0.1 steps = 1
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	sc := NewScope()
	diags := EvalLets(prog.Lets, sc, nil)
	globals := sc.Globals

	if globals["a"] != 2 || globals["b"] != 6 {
		t.Errorf("a = %v, b = %v", globals["a"], globals["b"])
	}
	if _, bound := globals["c"]; bound {
		t.Error("c references a later let and should stay unbound")
	}
	if globals["later"] != 5 {
		t.Errorf("later = %v, want 5", globals["later"])
	}
	if !math.IsInf(globals["big"], 1) {
		t.Errorf("big = %v, want +Inf bound despite diagnostic", globals["big"])
	}

	if len(diags.Errors()) != 2 {
		t.Errorf("got %d error diagnostics, want 2 (forward reference, non-finite)", len(diags.Errors()))
	}
}
