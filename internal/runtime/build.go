package runtime

import (
	"fmt"
	"math"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/eval"
	"github.com/kinetic-lang/kinetic/internal/physics"
)

// builder resolves names to dense indices and evaluates the expressions
// still attached to directly-declared entities. Elaborated entities
// arrive as literals; either way everything is numeric once Build
// returns.
type builder struct {
	scope *eval.Scope
	index map[string]int
}

// Build turns an elaborated program into a runnable Context. Particle
// indices follow declaration order. Unresolvable names and non-integer
// step or cycle counts are build errors; nothing is deferred to the step
// loop.
func Build(prog *ast.Program, globals map[string]float64) (*Context, error) {
	b := &builder{
		scope: &eval.Scope{Globals: globals},
		index: make(map[string]int, len(prog.Particles)),
	}

	ctx := &Context{detectors: prog.Detectors}
	for i, decl := range prog.Particles {
		b.index[decl.Name] = i
		x, err := b.eval(decl.X, "particle %s x position", decl.Name)
		if err != nil {
			return nil, err
		}
		y, err := b.eval(decl.Y, "particle %s y position", decl.Name)
		if err != nil {
			return nil, err
		}
		mass, err := b.eval(decl.Mass, "particle %s mass", decl.Name)
		if err != nil {
			return nil, err
		}
		ctx.world.Particles = append(ctx.world.Particles, physics.Particle{
			Name: decl.Name,
			Pos:  physics.Vec2{X: x, Y: y},
			Mass: mass,
		})
	}

	for _, decl := range prog.Forces {
		force, err := b.buildForce(decl)
		if err != nil {
			return nil, err
		}
		ctx.world.Forces = append(ctx.world.Forces, force)
	}

	for _, decl := range prog.Loops {
		inst, err := b.buildLoop(decl)
		if err != nil {
			return nil, err
		}
		ctx.loops = append(ctx.loops, inst)
	}

	for _, decl := range prog.Wells {
		inst, err := b.buildWell(decl)
		if err != nil {
			return nil, err
		}
		ctx.wells = append(ctx.wells, inst)
	}

	dt, err := b.eval(prog.Simulate.Dt, "dt")
	if err != nil {
		return nil, err
	}
	steps, err := b.eval(prog.Simulate.Steps, "steps")
	if err != nil {
		return nil, err
	}
	if steps < 1 || steps != math.Trunc(steps) {
		return nil, fmt.Errorf("%w, got %v", ErrBadStepCount, steps)
	}
	ctx.dt = dt
	ctx.maxSteps = int(steps)
	return ctx, nil
}

func (b *builder) eval(e ast.Expr, what string, args ...any) (float64, error) {
	v, err := eval.Eval(e, b.scope, nil)
	if err != nil {
		return 0, fmt.Errorf("evaluating %s: %w", fmt.Sprintf(what, args...), err)
	}
	return v, nil
}

func (b *builder) resolve(name string) (int, error) {
	idx, ok := b.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: '%s' not found", ErrUnknownParticle, name)
	}
	return idx, nil
}

func (b *builder) buildForce(decl ast.ForceDecl) (physics.Force, error) {
	a, err := b.resolve(decl.A)
	if err != nil {
		return physics.Force{}, err
	}
	bi, err := b.resolve(decl.B)
	if err != nil {
		return physics.Force{}, err
	}

	switch k := decl.Kind.(type) {
	case ast.Gravity:
		g, err := b.eval(k.G, "gravity G")
		if err != nil {
			return physics.Force{}, err
		}
		return physics.Force{Kind: physics.ForceGravity, A: a, B: bi, G: g}, nil
	case ast.Spring:
		kv, err := b.eval(k.K, "spring k")
		if err != nil {
			return physics.Force{}, err
		}
		rest, err := b.eval(k.Rest, "spring rest")
		if err != nil {
			return physics.Force{}, err
		}
		return physics.Force{Kind: physics.ForceSpring, A: a, B: bi, K: kv, Rest: rest}, nil
	}
	return physics.Force{}, fmt.Errorf("unhandled force kind %T", decl.Kind)
}

func (b *builder) buildObservable(obs ast.Observable) (observable, error) {
	switch o := obs.(type) {
	case ast.ObserveX:
		idx, err := b.resolve(o.Particle)
		if err != nil {
			return observable{}, err
		}
		return observable{kind: obsX, a: idx}, nil
	case ast.ObserveY:
		idx, err := b.resolve(o.Particle)
		if err != nil {
			return observable{}, err
		}
		return observable{kind: obsY, a: idx}, nil
	case ast.ObserveDistance:
		a, err := b.resolve(o.A)
		if err != nil {
			return observable{}, err
		}
		bi, err := b.resolve(o.B)
		if err != nil {
			return observable{}, err
		}
		return observable{kind: obsDistance, a: a, b: bi}, nil
	}
	return observable{}, fmt.Errorf("unhandled observable %T", obs)
}

func (b *builder) buildLoop(decl ast.LoopDecl) (loopInstance, error) {
	inst := loopInstance{active: true}

	switch k := decl.Kind.(type) {
	case ast.ForCycles:
		target, err := b.resolve(k.Target)
		if err != nil {
			return loopInstance{}, err
		}
		cycles, err := b.eval(k.Cycles, "cycles")
		if err != nil {
			return loopInstance{}, err
		}
		if cycles < 0 || cycles != math.Trunc(cycles) {
			return loopInstance{}, fmt.Errorf("%w, got %v", ErrBadCycleCount, cycles)
		}
		freq, err := b.eval(k.Frequency, "frequency")
		if err != nil {
			return loopInstance{}, err
		}
		damping, err := b.eval(k.Damping, "damping")
		if err != nil {
			return loopInstance{}, err
		}
		inst.target = target
		inst.counted = true
		inst.cyclesLeft = int(cycles)
		inst.freq = freq
		inst.damping = damping

	case ast.WhileCond:
		target, err := b.resolve(k.Target)
		if err != nil {
			return loopInstance{}, err
		}
		obs, err := b.buildObservable(k.Cond.Obs)
		if err != nil {
			return loopInstance{}, err
		}
		threshold, err := b.eval(k.Cond.Threshold, "condition threshold")
		if err != nil {
			return loopInstance{}, err
		}
		freq, err := b.eval(k.Frequency, "frequency")
		if err != nil {
			return loopInstance{}, err
		}
		damping, err := b.eval(k.Damping, "damping")
		if err != nil {
			return loopInstance{}, err
		}
		inst.target = target
		inst.cond = condition{op: k.Cond.Op, obs: obs, threshold: threshold}
		inst.freq = freq
		inst.damping = damping
	}

	for _, action := range decl.Body {
		target, err := b.resolve(action.Target)
		if err != nil {
			return loopInstance{}, err
		}
		mag, err := b.eval(action.Magnitude, "push magnitude")
		if err != nil {
			return loopInstance{}, err
		}
		dx, err := b.eval(action.DirX, "push direction x")
		if err != nil {
			return loopInstance{}, err
		}
		dy, err := b.eval(action.DirY, "push direction y")
		if err != nil {
			return loopInstance{}, err
		}
		inst.body = append(inst.body, push{
			target:    target,
			magnitude: mag,
			dir:       physics.Vec2{X: dx, Y: dy},
		})
	}
	return inst, nil
}

func (b *builder) buildWell(decl ast.WellDecl) (wellInstance, error) {
	target, err := b.resolve(decl.Target)
	if err != nil {
		return wellInstance{}, err
	}
	obs, err := b.buildObservable(decl.Obs)
	if err != nil {
		return wellInstance{}, err
	}
	threshold, err := b.eval(decl.Threshold, "well %s threshold", decl.Name)
	if err != nil {
		return wellInstance{}, err
	}
	depth, err := b.eval(decl.Depth, "well %s depth", decl.Name)
	if err != nil {
		return wellInstance{}, err
	}
	return wellInstance{
		name:      decl.Name,
		target:    target,
		obs:       obs,
		threshold: threshold,
		depth:     depth,
	}, nil
}
