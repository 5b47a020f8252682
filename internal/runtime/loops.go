package runtime

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/physics"
)

type obsKind int

const (
	obsX obsKind = iota
	obsY
	obsDistance
)

// observable is an index-resolved quantity a loop condition or well
// monitors.
type observable struct {
	kind obsKind
	a, b int
}

func (o observable) value(w *physics.World) float64 {
	switch o.kind {
	case obsX:
		return w.Particles[o.a].Pos.X
	case obsY:
		return w.Particles[o.a].Pos.Y
	default:
		return w.Distance(o.a, o.b)
	}
}

type condition struct {
	op        ast.CmpOp
	obs       observable
	threshold float64
}

func (c condition) holds(w *physics.World) bool {
	v := c.obs.value(w)
	if c.op == ast.CmpLess {
		return v < c.threshold
	}
	return v > c.threshold
}

// push is one index-resolved loop body action: an instantaneous velocity
// impulse along a normalized direction.
type push struct {
	target    int
	magnitude float64
	dir       physics.Vec2
}

type loopInstance struct {
	target  int
	active  bool
	phase   float64
	freq    float64
	damping float64
	body    []push

	// counted selects the ForCycles kind; otherwise cond applies.
	counted    bool
	cyclesLeft int
	cond       condition
}

// advancePhase moves the oscillator forward and reports a wrap. Damping
// decays the accumulator itself, so a heavily damped loop may never reach
// a wrap again.
func (l *loopInstance) advancePhase(dt float64) bool {
	l.phase += 2 * math.Pi * l.freq * dt
	l.phase *= math.Max(0, 1-l.damping*dt)
	if l.phase >= 2*math.Pi {
		l.phase -= 2 * math.Pi
		return true
	}
	return false
}

// advanceLoops runs every active loop's oscillator and fires bodies on
// wrap. A ForCycles loop declared with zero cycles fires once on its
// first wrap before deactivating; that quirk is part of the language.
func (c *Context) advanceLoops() {
	for i := range c.loops {
		l := &c.loops[i]
		if !l.active {
			continue
		}
		if !l.advancePhase(c.dt) {
			continue
		}

		if l.counted {
			c.fire(l.body)
			if l.cyclesLeft > 0 {
				l.cyclesLeft--
			}
			if l.cyclesLeft == 0 {
				l.active = false
			}
			continue
		}

		// While-loops test the condition before firing; a false
		// condition deactivates without a final impulse.
		if l.cond.holds(&c.world) {
			c.fire(l.body)
		} else {
			l.active = false
		}
	}
}

func (c *Context) fire(body []push) {
	for _, p := range body {
		part := &c.world.Particles[p.target]
		part.Vel = part.Vel.Add(p.dir.Normalize().Scale(p.magnitude))
	}
}

// recheckLoopConditions deactivates while-loops whose condition went
// false during integration, so a loop can die between wraps, not only at
// a wrap boundary.
func (c *Context) recheckLoopConditions() {
	for i := range c.loops {
		l := &c.loops[i]
		if !l.active || l.counted {
			continue
		}
		if !l.cond.holds(&c.world) {
			l.active = false
		}
	}
}
