package eval

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/diag"
)

// EvalLets evaluates global lets in declaration order into sc.Globals. A let
// that fails to evaluate is reported and left unbound; later lets still run
// so one bad binding surfaces every downstream problem in a single pass.
// Non-finite results are bound but reported, since they would poison the
// physics. The scope is taken from the caller so function bodies invoked
// mid-evaluation observe the bindings made so far.
func EvalLets(lets []ast.LetBinding, sc *Scope, caller Caller) diag.List {
	var diags diag.List
	for _, let := range lets {
		v, err := Eval(let.Value, sc, caller)
		if err != nil {
			diags = append(diags, diag.Errorf(let.Span, "Let '%s': %v", let.Name, err))
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			diags = append(diags, diag.Errorf(let.Span, "Let '%s' evaluates to non-finite value %v", let.Name, v))
		}
		sc.Globals[let.Name] = v
	}
	return diags
}
