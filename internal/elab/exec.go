package elab

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/eval"
)

func num(v float64) ast.Expr { return ast.NumberLit{Value: v} }

// execBlock runs statements in order until one returns or fails. A return
// propagates out through enclosing if/for/match blocks to the nearest
// function call; at the top level it simply stops remaining statements.
func (el *Elaborator) execBlock(stmts []ast.Stmt, sc *eval.Scope) (eval.Value, bool, error) {
	for _, stmt := range stmts {
		ret, returned, err := el.execStmt(stmt, sc)
		if err != nil || returned {
			return ret, returned, err
		}
	}
	return eval.Value{}, false, nil
}

func (el *Elaborator) execStmt(stmt ast.Stmt, sc *eval.Scope) (eval.Value, bool, error) {
	switch n := stmt.(type) {
	case ast.LetStmt:
		v, err := eval.Eval(n.Value, sc, el)
		if err != nil {
			return eval.Value{}, false, err
		}
		sc.SetLocal(n.Name, v)
		return eval.Value{}, false, nil

	case ast.CallStmt:
		// Statement-position call: arguments evaluate first, the body
		// runs, and any return value is discarded.
		args := make([]eval.Value, 0, len(n.Args))
		for _, a := range n.Args {
			v, err := eval.EvalValue(a, sc, el)
			if err != nil {
				return eval.Value{}, false, err
			}
			args = append(args, v)
		}
		if _, _, err := el.invoke(n.Name, args); err != nil {
			return eval.Value{}, false, err
		}
		return eval.Value{}, false, nil

	case ast.ReturnStmt:
		v, err := eval.Eval(n.Value, sc, el)
		if err != nil {
			return eval.Value{}, false, err
		}
		return eval.Num(v), true, nil

	case ast.ParticleStmt:
		return eval.Value{}, false, el.emitParticle(n.Decl, sc)

	case ast.ForceStmt:
		return eval.Value{}, false, el.emitForce(n.Decl, sc)

	case ast.DetectorStmt:
		return eval.Value{}, false, el.emitDetector(n.Decl, sc)

	case ast.LoopStmt:
		return eval.Value{}, false, el.emitLoop(n.Decl, sc)

	case ast.WellStmt:
		return eval.Value{}, false, el.emitWell(n.Decl, sc)

	case ast.IfStmt:
		cond, err := eval.Eval(n.Cond, sc, el)
		if err != nil {
			return eval.Value{}, false, err
		}
		branch := n.Then
		if cond == 0 {
			branch = n.Else
		}
		return el.execBlock(branch, derive(sc))

	case ast.ForStmt:
		startF, err := eval.Eval(n.Start, sc, el)
		if err != nil {
			return eval.Value{}, false, err
		}
		endF, err := eval.Eval(n.End, sc, el)
		if err != nil {
			return eval.Value{}, false, err
		}
		start, end := int64(math.Floor(startF)), int64(math.Floor(endF))
		for i := start; i < end; i++ {
			child := derive(sc)
			child.SetLocal(n.Var, float64(i))
			ret, returned, err := el.execBlock(n.Body, child)
			if err != nil || returned {
				return ret, returned, err
			}
		}
		return eval.Value{}, false, nil

	case ast.MatchStmt:
		v, err := eval.Eval(n.Scrutinee, sc, el)
		if err != nil {
			return eval.Value{}, false, err
		}
		target := int64(math.Round(v))
		for _, arm := range n.Arms {
			if arm.Wildcard || arm.Pattern == target {
				return el.execBlock(arm.Body, derive(sc))
			}
		}
		return eval.Value{}, false, nil

	default:
		return eval.Value{}, false, nil
	}
}

func (el *Elaborator) emitParticle(decl ast.ParticleDecl, sc *eval.Scope) error {
	name := particleName(decl.Name, sc)
	x, err := eval.Eval(decl.X, sc, el)
	if err != nil {
		return err
	}
	y, err := eval.Eval(decl.Y, sc, el)
	if err != nil {
		return err
	}
	m, err := eval.Eval(decl.Mass, sc, el)
	if err != nil {
		return err
	}
	el.prog.Particles = append(el.prog.Particles, ast.ParticleDecl{
		Name: name, X: num(x), Y: num(y), Mass: num(m), Span: decl.Span,
	})
	el.particles[name] = true
	return nil
}

func (el *Elaborator) emitForce(decl ast.ForceDecl, sc *eval.Scope) error {
	a, err := el.resolveParticle(decl.A, sc)
	if err != nil {
		return err
	}
	b, err := el.resolveParticle(decl.B, sc)
	if err != nil {
		return err
	}

	var kind ast.ForceKind
	switch k := decl.Kind.(type) {
	case ast.Gravity:
		g, err := eval.Eval(k.G, sc, el)
		if err != nil {
			return err
		}
		kind = ast.Gravity{G: num(g)}
	case ast.Spring:
		kv, err := eval.Eval(k.K, sc, el)
		if err != nil {
			return err
		}
		rest, err := eval.Eval(k.Rest, sc, el)
		if err != nil {
			return err
		}
		kind = ast.Spring{K: num(kv), Rest: num(rest)}
	}

	el.prog.Forces = append(el.prog.Forces, ast.ForceDecl{A: a, B: b, Kind: kind, Span: decl.Span})
	return nil
}

func (el *Elaborator) emitDetector(decl ast.DetectorDecl, sc *eval.Scope) error {
	var kind ast.DetectorKind
	switch k := decl.Kind.(type) {
	case ast.Position:
		p, err := el.resolveParticle(k.Particle, sc)
		if err != nil {
			return err
		}
		kind = ast.Position{Particle: p}
	case ast.Distance:
		a, err := el.resolveParticle(k.A, sc)
		if err != nil {
			return err
		}
		b, err := el.resolveParticle(k.B, sc)
		if err != nil {
			return err
		}
		kind = ast.Distance{A: a, B: b}
	}
	el.prog.Detectors = append(el.prog.Detectors, ast.DetectorDecl{Name: decl.Name, Kind: kind, Span: decl.Span})
	return nil
}

func (el *Elaborator) emitLoop(decl ast.LoopDecl, sc *eval.Scope) error {
	var kind ast.LoopKind
	switch k := decl.Kind.(type) {
	case ast.ForCycles:
		target, err := el.resolveParticle(k.Target, sc)
		if err != nil {
			return err
		}
		cycles, err := eval.Eval(k.Cycles, sc, el)
		if err != nil {
			return err
		}
		freq, err := eval.Eval(k.Frequency, sc, el)
		if err != nil {
			return err
		}
		damping, err := eval.Eval(k.Damping, sc, el)
		if err != nil {
			return err
		}
		kind = ast.ForCycles{Cycles: num(cycles), Frequency: num(freq), Damping: num(damping), Target: target}

	case ast.WhileCond:
		target, err := el.resolveParticle(k.Target, sc)
		if err != nil {
			return err
		}
		cond, err := el.resolveCondition(k.Cond, sc)
		if err != nil {
			return err
		}
		freq, err := eval.Eval(k.Frequency, sc, el)
		if err != nil {
			return err
		}
		damping, err := eval.Eval(k.Damping, sc, el)
		if err != nil {
			return err
		}
		kind = ast.WhileCond{Cond: cond, Frequency: num(freq), Damping: num(damping), Target: target}
	}

	body := make([]ast.Push, 0, len(decl.Body))
	for _, push := range decl.Body {
		target, err := el.resolveParticle(push.Target, sc)
		if err != nil {
			return err
		}
		mag, err := eval.Eval(push.Magnitude, sc, el)
		if err != nil {
			return err
		}
		dx, err := eval.Eval(push.DirX, sc, el)
		if err != nil {
			return err
		}
		dy, err := eval.Eval(push.DirY, sc, el)
		if err != nil {
			return err
		}
		body = append(body, ast.Push{Target: target, Magnitude: num(mag), DirX: num(dx), DirY: num(dy)})
	}

	el.prog.Loops = append(el.prog.Loops, ast.LoopDecl{Label: decl.Label, Kind: kind, Body: body, Span: decl.Span})
	return nil
}

func (el *Elaborator) emitWell(decl ast.WellDecl, sc *eval.Scope) error {
	target, err := el.resolveParticle(decl.Target, sc)
	if err != nil {
		return err
	}
	obs, err := el.resolveObservable(decl.Obs, sc)
	if err != nil {
		return err
	}
	threshold, err := eval.Eval(decl.Threshold, sc, el)
	if err != nil {
		return err
	}
	depth, err := eval.Eval(decl.Depth, sc, el)
	if err != nil {
		return err
	}
	el.prog.Wells = append(el.prog.Wells, ast.WellDecl{
		Name: decl.Name, Target: target, Obs: obs, Threshold: num(threshold), Depth: num(depth), Span: decl.Span,
	})
	return nil
}

func (el *Elaborator) resolveObservable(obs ast.Observable, sc *eval.Scope) (ast.Observable, error) {
	switch o := obs.(type) {
	case ast.ObserveX:
		p, err := el.resolveParticle(o.Particle, sc)
		if err != nil {
			return nil, err
		}
		return ast.ObserveX{Particle: p}, nil
	case ast.ObserveY:
		p, err := el.resolveParticle(o.Particle, sc)
		if err != nil {
			return nil, err
		}
		return ast.ObserveY{Particle: p}, nil
	case ast.ObserveDistance:
		a, err := el.resolveParticle(o.A, sc)
		if err != nil {
			return nil, err
		}
		b, err := el.resolveParticle(o.B, sc)
		if err != nil {
			return nil, err
		}
		return ast.ObserveDistance{A: a, B: b}, nil
	}
	return obs, nil
}

func (el *Elaborator) resolveCondition(cond ast.Condition, sc *eval.Scope) (ast.Condition, error) {
	obs, err := el.resolveObservable(cond.Obs, sc)
	if err != nil {
		return ast.Condition{}, err
	}
	threshold, err := eval.Eval(cond.Threshold, sc, el)
	if err != nil {
		return ast.Condition{}, err
	}
	return ast.Condition{Op: cond.Op, Obs: obs, Threshold: num(threshold)}, nil
}
