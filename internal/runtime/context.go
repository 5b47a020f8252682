// Package runtime turns an elaborated program into a running simulation.
//
// The builder resolves every particle name to a dense index so the step
// loop never touches a string. Each step advances the scripted loops,
// applies potential wells, integrates physics, and re-checks while-loop
// conditions, in that order. A Context is owned by exactly one driver and
// is discarded rather than reused when the source changes.
package runtime

import (
	"errors"

	"github.com/kinetic-lang/kinetic/internal/ast"
	"github.com/kinetic-lang/kinetic/internal/physics"
)

var (
	ErrUnknownParticle = errors.New("runtime: unknown particle")
	ErrBadStepCount    = errors.New("runtime: steps must be an integer >= 1")
	ErrBadCycleCount   = errors.New("runtime: cycles must be an integer >= 0")
	ErrAnalysis        = errors.New("runtime: static analysis failed")
)

// Context is one runnable simulation: the world plus the loop and well
// state machines layered on it.
type Context struct {
	world     physics.World
	loops     []loopInstance
	wells     []wellInstance
	detectors []ast.DetectorDecl
	dt        float64
	maxSteps  int
	step      int
}

// ParticleState is a read-only view of one particle for observers.
type ParticleState struct {
	Name string
	Pos  physics.Vec2
	Mass float64
}

// World exposes the mechanical state for rendering and energy read-outs.
// Callers must not mutate it between steps.
func (c *Context) World() *physics.World { return &c.world }

func (c *Context) Dt() float64    { return c.dt }
func (c *Context) StepCount() int { return c.step }
func (c *Context) MaxSteps() int  { return c.maxSteps }

// Time is the simulated time elapsed so far.
func (c *Context) Time() float64 { return float64(c.step) * c.dt }

// Done reports whether the step budget is exhausted.
func (c *Context) Done() bool { return c.step >= c.maxSteps }

// Step advances the simulation by one fixed step and reports whether the
// run is finished. Calling Step on a finished context is a no-op.
//
// The order within a step is fixed: scripted loops fire first, wells
// apply their restoring pull, physics integrates, and while-loop
// conditions get a post-integration re-check. The detector determinism
// guarantee depends on this order.
func (c *Context) Step() bool {
	if c.Done() {
		return true
	}
	c.advanceLoops()
	c.applyWells()
	c.world.Step(c.dt)
	c.recheckLoopConditions()
	c.step++
	return c.Done()
}

// Snapshot copies the current particle state for observers that outlive
// the step that produced it.
func (c *Context) Snapshot() []ParticleState {
	out := make([]ParticleState, len(c.world.Particles))
	for i := range c.world.Particles {
		p := &c.world.Particles[i]
		out[i] = ParticleState{Name: p.Name, Pos: p.Pos, Mass: p.Mass}
	}
	return out
}
