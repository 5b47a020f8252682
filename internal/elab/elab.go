// Package elab expands control flow and user functions into a flat scene.
//
// The elaborator is a tree-walking interpreter. Variable bindings follow
// copy-on-branch scoping: entering an if branch, a for iteration, a match
// arm, or a function body derives a fresh local scope. The program itself is
// the opposite: one shared accumulator that every nesting level appends
// particles, forces, loops, wells, and detectors to. Bindings are copied,
// entities are shared; both halves of that asymmetry matter.
package elab

import (
	"errors"
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/diag"
	"github.com/kinetic-lang/kinetic/internal/eval"
)

var ErrUnknownParticle = errors.New("Unknown particle")

// callDepthLimit bounds user-function recursion so a self-calling function
// fails with an error instead of exhausting the stack.
const callDepthLimit = 200

type Elaborator struct {
	prog      *ast.Program
	funcs     map[string]ast.FuncDecl
	globals   map[string]float64
	particles map[string]bool
	depth     int
}

// Elaborate evaluates the program's global lets, then executes its top-level
// statements, appending every generated declaration to prog. On success the
// consumed statements and function declarations are cleared, leaving the
// flat scene the runtime builder expects. The returned globals feed the
// runtime builder's expression evaluation.
func Elaborate(prog *ast.Program) (map[string]float64, diag.List, error) {
	el := &Elaborator{
		prog:      prog,
		funcs:     make(map[string]ast.FuncDecl, len(prog.Functions)),
		particles: make(map[string]bool, len(prog.Particles)),
	}
	for _, fn := range prog.Functions {
		el.funcs[fn.Name] = fn
	}
	for _, part := range prog.Particles {
		el.particles[part.Name] = true
	}

	sc := eval.NewScope()
	el.globals = sc.Globals

	diags := eval.EvalLets(prog.Lets, sc, el)
	if diags.HasErrors() {
		return el.globals, diags, nil
	}

	if _, _, err := el.execBlock(prog.Statements, sc); err != nil {
		return el.globals, diags, err
	}

	prog.Statements = nil
	prog.Functions = nil
	return el.globals, diags, nil
}

// Call runs a user function for an expression-position call. It implements
// eval.Caller; the evaluator turns a missing return into an error.
func (el *Elaborator) Call(name string, args []eval.Value) (eval.Value, bool, error) {
	return el.invoke(name, args)
}

func (el *Elaborator) invoke(name string, args []eval.Value) (eval.Value, bool, error) {
	fn, ok := el.funcs[name]
	if !ok {
		return eval.Value{}, false, fmt.Errorf("%w: %s", eval.ErrUnknownFunc, name)
	}
	if len(args) != len(fn.Params) {
		return eval.Value{}, false, fmt.Errorf("Function '%s' expects %d argument(s), got %d", name, len(fn.Params), len(args))
	}
	if el.depth >= callDepthLimit {
		return eval.Value{}, false, fmt.Errorf("Function call depth exceeded in '%s'", name)
	}

	params := make(map[string]eval.Value, len(args))
	for i, param := range fn.Params {
		params[param] = args[i]
	}
	sc := &eval.Scope{Globals: el.globals, Params: params}

	el.depth++
	ret, returned, err := el.execBlock(fn.Body, sc)
	el.depth--
	return ret, returned, err
}

// derive copies the local bindings of sc into a child scope. Globals and
// parameters are shared; they are never written after binding.
func derive(sc *eval.Scope) *eval.Scope {
	locals := make(map[string]float64, len(sc.Locals))
	for name, v := range sc.Locals {
		locals[name] = v
	}
	return &eval.Scope{Globals: sc.Globals, Params: sc.Params, Locals: locals}
}

// particleName resolves a name appearing in a particle position: a string
// parameter substitutes its value, anything else is taken literally. Only
// particle names substitute; detector and well names stay as written.
func particleName(name string, sc *eval.Scope) string {
	if sc.Params != nil {
		if v, ok := sc.Params[name]; ok && v.IsStr {
			return v.Str
		}
	}
	return name
}

func (el *Elaborator) resolveParticle(name string, sc *eval.Scope) (string, error) {
	resolved := particleName(name, sc)
	if !el.particles[resolved] {
		return "", fmt.Errorf("%w: %s", ErrUnknownParticle, resolved)
	}
	return resolved, nil
}
