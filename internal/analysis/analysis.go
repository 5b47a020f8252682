// Package analysis validates a parsed program without evaluating it.
//
// Analyze runs at two points in the pipeline. Before elaboration it checks
// the program as written, treating particles declared inside functions and
// control-flow branches as potentially existing. After elaboration, when
// statements and functions have been expanded away, the same checks become
// strict: every reference must resolve against the flat entity lists.
package analysis

import (
	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/diag"
)

type analyzer struct {
	diags     diag.List
	lets      map[string]bool
	funcs     map[string]int
	particles map[string]bool
}

// Analyze checks names, arities, and declaration uniqueness. It never
// mutates the program.
func Analyze(prog *ast.Program) diag.List {
	a := &analyzer{
		lets:      make(map[string]bool),
		funcs:     make(map[string]int),
		particles: make(map[string]bool),
	}

	for _, let := range prog.Lets {
		if a.lets[let.Name] {
			a.errorf(let.Span, "Duplicate let binding: %s", let.Name)
		}
		a.lets[let.Name] = true
	}

	for i := range prog.Functions {
		fn := &prog.Functions[i]
		if _, dup := a.funcs[fn.Name]; dup {
			a.errorf(fn.Span, "Duplicate function name: %s", fn.Name)
		}
		if a.lets[fn.Name] {
			a.errorf(fn.Span, "Function '%s' conflicts with a let binding", fn.Name)
		}
		a.funcs[fn.Name] = len(fn.Params)
	}

	letScope := newScope(nil)
	for _, let := range prog.Lets {
		a.checkExpr(let.Value, letScope, let.Span)
		letScope.bind(let.Name)
	}

	for _, part := range prog.Particles {
		if a.particles[part.Name] {
			a.errorf(part.Span, "Duplicate particle name: %s", part.Name)
		}
		a.particles[part.Name] = true
	}
	collectDeclared(prog.Statements, a.particles)
	for _, fn := range prog.Functions {
		collectDeclared(fn.Body, a.particles)
	}

	globals := newScope(nil)
	for name := range a.lets {
		globals.bind(name)
	}

	for _, part := range prog.Particles {
		a.checkExprs(globals, part.Span, part.X, part.Y, part.Mass)
	}
	for _, force := range prog.Forces {
		a.checkForce(force, globals)
	}
	if prog.Simulate != nil {
		a.checkExprs(globals, prog.Simulate.Span, prog.Simulate.Dt, prog.Simulate.Steps)
	}
	for _, det := range prog.Detectors {
		a.checkDetector(det, globals)
	}
	for _, lp := range prog.Loops {
		a.checkLoop(lp, globals)
	}
	for _, well := range prog.Wells {
		a.checkWell(well, globals)
	}

	a.checkBlock(prog.Statements, globals)

	for _, fn := range prog.Functions {
		a.checkFunction(fn, globals)
	}

	return a.diags
}

func (a *analyzer) errorf(span ast.Span, format string, args ...any) {
	a.diags = append(a.diags, diag.Errorf(span, format, args...))
}

func (a *analyzer) warnf(span ast.Span, format string, args ...any) {
	a.diags = append(a.diags, diag.Warningf(span, format, args...))
}

// scope tracks which variable names are visible, and which of them are
// function parameters. Parameters may stand in for particle names, so
// particle references inside a function body resolve against them too.
type scope struct {
	vars   map[string]bool
	params map[string]bool
}

func newScope(parent *scope) *scope {
	s := &scope{vars: make(map[string]bool), params: make(map[string]bool)}
	if parent != nil {
		for name := range parent.vars {
			s.vars[name] = true
		}
		for name := range parent.params {
			s.params[name] = true
		}
	}
	return s
}

func (s *scope) bind(name string)      { s.vars[name] = true }
func (s *scope) bindParam(name string) { s.vars[name] = true; s.params[name] = true }
func (s *scope) has(name string) bool  { return s.vars[name] }

// collectDeclared gathers every particle name a statement list could declare,
// including names buried in branches that may never run.
func collectDeclared(stmts []ast.Stmt, into map[string]bool) {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case ast.ParticleStmt:
			into[n.Decl.Name] = true
		case ast.IfStmt:
			collectDeclared(n.Then, into)
			collectDeclared(n.Else, into)
		case ast.ForStmt:
			collectDeclared(n.Body, into)
		case ast.MatchStmt:
			for _, arm := range n.Arms {
				collectDeclared(arm.Body, into)
			}
		}
	}
}

func (a *analyzer) checkParticleRef(name string, span ast.Span, sc *scope) {
	if a.particles[name] {
		return
	}
	if sc != nil && sc.params[name] {
		return
	}
	a.errorf(span, "Unknown particle: %s", name)
}

func (a *analyzer) checkExprs(sc *scope, span ast.Span, exprs ...ast.Expr) {
	for _, e := range exprs {
		if e != nil {
			a.checkExpr(e, sc, span)
		}
	}
}

func (a *analyzer) checkExpr(e ast.Expr, sc *scope, span ast.Span) {
	switch n := e.(type) {
	case ast.NumberLit, ast.StringLit:

	case ast.VarRef:
		if !sc.has(n.Name) {
			a.errorf(span, "Unknown variable: %s", n.Name)
		}

	case ast.Neg:
		a.checkExpr(n.X, sc, span)

	case ast.Binary:
		a.checkExpr(n.Left, sc, span)
		a.checkExpr(n.Right, sc, span)

	case ast.BuiltinCall:
		if want := n.Fn.Arity(); len(n.Args) != want {
			a.errorf(span, "'%s' expects %d argument(s), got %d", n.Fn, want, len(n.Args))
		}
		for _, arg := range n.Args {
			a.checkExpr(arg, sc, span)
		}

	case ast.UserCall:
		a.checkCall(n.Name, n.Args, span, sc)
	}
}

func (a *analyzer) checkCall(name string, args []ast.Expr, span ast.Span, sc *scope) {
	want, known := a.funcs[name]
	if !known {
		a.errorf(span, "Unknown function: %s", name)
	} else if len(args) != want {
		a.errorf(span, "Function '%s' expects %d argument(s), got %d", name, want, len(args))
	}
	for _, arg := range args {
		a.checkExpr(arg, sc, span)
	}
}

func (a *analyzer) checkForce(force ast.ForceDecl, sc *scope) {
	a.checkParticleRef(force.A, force.Span, sc)
	a.checkParticleRef(force.B, force.Span, sc)
	switch k := force.Kind.(type) {
	case ast.Gravity:
		a.checkExprs(sc, force.Span, k.G)
	case ast.Spring:
		a.checkExprs(sc, force.Span, k.K, k.Rest)
	}
}

func (a *analyzer) checkDetector(det ast.DetectorDecl, sc *scope) {
	switch k := det.Kind.(type) {
	case ast.Position:
		a.checkParticleRef(k.Particle, det.Span, sc)
	case ast.Distance:
		a.checkParticleRef(k.A, det.Span, sc)
		a.checkParticleRef(k.B, det.Span, sc)
	}
}

func (a *analyzer) checkObservable(obs ast.Observable, span ast.Span, sc *scope) {
	switch o := obs.(type) {
	case ast.ObserveX:
		a.checkParticleRef(o.Particle, span, sc)
	case ast.ObserveY:
		a.checkParticleRef(o.Particle, span, sc)
	case ast.ObserveDistance:
		a.checkParticleRef(o.A, span, sc)
		a.checkParticleRef(o.B, span, sc)
	}
}

func (a *analyzer) checkLoop(lp ast.LoopDecl, sc *scope) {
	switch k := lp.Kind.(type) {
	case ast.ForCycles:
		a.checkParticleRef(k.Target, lp.Span, sc)
		a.checkExprs(sc, lp.Span, k.Cycles, k.Frequency, k.Damping)
	case ast.WhileCond:
		a.checkParticleRef(k.Target, lp.Span, sc)
		a.checkObservable(k.Cond.Obs, lp.Span, sc)
		a.checkExprs(sc, lp.Span, k.Cond.Threshold, k.Frequency, k.Damping)
	}
	for _, push := range lp.Body {
		a.checkParticleRef(push.Target, lp.Span, sc)
		a.checkExprs(sc, lp.Span, push.Magnitude, push.DirX, push.DirY)
	}
}

func (a *analyzer) checkWell(well ast.WellDecl, sc *scope) {
	a.checkParticleRef(well.Target, well.Span, sc)
	a.checkObservable(well.Obs, well.Span, sc)
	a.checkExprs(sc, well.Span, well.Threshold, well.Depth)
}

func (a *analyzer) checkFunction(fn ast.FuncDecl, globals *scope) {
	sc := newScope(globals)
	seen := make(map[string]bool, len(fn.Params))
	for _, param := range fn.Params {
		if seen[param] {
			a.errorf(fn.Span, "Duplicate parameter name: %s", param)
		}
		seen[param] = true
		if a.lets[param] {
			a.warnf(fn.Span, "Parameter '%s' shadows a global let", param)
		}
		sc.bindParam(param)
	}
	a.checkBlock(fn.Body, sc)
}

// checkBlock validates a statement list. Each nested block is checked in a
// derived scope so bindings stay local, mirroring elaboration.
func (a *analyzer) checkBlock(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		switch n := stmt.(type) {
		case ast.LetStmt:
			a.checkExpr(n.Value, sc, n.Span)
			if sc.has(n.Name) {
				a.warnf(n.Span, "Let '%s' shadows an earlier binding", n.Name)
			}
			sc.bind(n.Name)

		case ast.CallStmt:
			a.checkCall(n.Name, n.Args, n.Span, sc)

		case ast.ReturnStmt:
			a.checkExpr(n.Value, sc, n.Span)

		case ast.ParticleStmt:
			a.checkExprs(sc, n.Decl.Span, n.Decl.X, n.Decl.Y, n.Decl.Mass)

		case ast.ForceStmt:
			a.checkForce(n.Decl, sc)

		case ast.DetectorStmt:
			a.checkDetector(n.Decl, sc)

		case ast.LoopStmt:
			a.checkLoop(n.Decl, sc)

		case ast.WellStmt:
			a.checkWell(n.Decl, sc)

		case ast.IfStmt:
			a.checkExpr(n.Cond, sc, n.Span)
			a.checkBlock(n.Then, newScope(sc))
			a.checkBlock(n.Else, newScope(sc))

		case ast.ForStmt:
			a.checkExprs(sc, n.Span, n.Start, n.End)
			body := newScope(sc)
			if sc.has(n.Var) {
				a.warnf(n.Span, "Loop variable '%s' shadows an earlier binding", n.Var)
			}
			body.bind(n.Var)
			a.checkBlock(n.Body, body)

		case ast.MatchStmt:
			a.checkExpr(n.Scrutinee, sc, n.Span)
			wildcards := 0
			for _, arm := range n.Arms {
				if arm.Wildcard {
					wildcards++
				}
				a.checkBlock(arm.Body, newScope(sc))
			}
			if wildcards > 1 {
				a.errorf(n.Span, "Multiple wildcard arms in match")
			}
		}
	}
}
