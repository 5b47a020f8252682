// Package physics integrates point masses under pairwise forces.
//
// The integrator is semi-implicit Euler with a strict two-phase step:
// accelerations for every particle are computed from pre-step state, then
// velocities and positions advance. The step result is independent of
// particle iteration order, which the determinism guarantees rely on.
package physics

// Particle is a point mass. Index positions in World.Particles are stable
// and are how forces refer to their endpoints.
type Particle struct {
	Name string
	Pos  Vec2
	Vel  Vec2
	Mass float64
}

type ForceKind int

const (
	ForceGravity ForceKind = iota
	ForceSpring
)

// Force couples the particles at indices A and B. Gravity uses G; Spring
// uses K and Rest.
type Force struct {
	Kind ForceKind
	A, B int
	G    float64
	K    float64
	Rest float64
}

// World is the full mechanical state: particles plus the forces between
// them.
type World struct {
	Particles []Particle
	Forces    []Force

	accels []Vec2
}

// Acceleration sums force contributions on the particle at index i from
// current positions. Coincident particles contribute nothing rather than
// an infinity.
func (w *World) Acceleration(i int) Vec2 {
	var acc Vec2
	p := &w.Particles[i]

	for _, f := range w.Forces {
		var other int
		switch i {
		case f.A:
			other = f.B
		case f.B:
			other = f.A
		default:
			continue
		}

		o := &w.Particles[other]
		delta := o.Pos.Sub(p.Pos)
		dist := delta.Length()
		if dist == 0 {
			continue
		}
		unit := delta.Scale(1 / dist)

		switch f.Kind {
		case ForceGravity:
			acc = acc.Add(unit.Scale(f.G * o.Mass / (dist * dist)))
		case ForceSpring:
			// Signed displacement: positive pulls toward the other
			// end, negative pushes away.
			acc = acc.Add(unit.Scale(f.K * (dist - f.Rest) / p.Mass))
		}
	}
	return acc
}

// Step advances the world by dt. All accelerations come from pre-step
// positions; each velocity then advances before its position, so the new
// position uses the new velocity.
func (w *World) Step(dt float64) {
	if cap(w.accels) < len(w.Particles) {
		w.accels = make([]Vec2, len(w.Particles))
	}
	w.accels = w.accels[:len(w.Particles)]

	for i := range w.Particles {
		w.accels[i] = w.Acceleration(i)
	}
	for i := range w.Particles {
		p := &w.Particles[i]
		p.Vel = p.Vel.Add(w.accels[i].Scale(dt))
		p.Pos = p.Pos.Add(p.Vel.Scale(dt))
	}
}

// Distance returns the separation of two particles by index.
func (w *World) Distance(i, j int) float64 {
	return w.Particles[j].Pos.Sub(w.Particles[i].Pos).Length()
}

// KineticEnergy sums ½·m·v² over all particles.
func (w *World) KineticEnergy() float64 {
	total := 0.0
	for i := range w.Particles {
		p := &w.Particles[i]
		total += 0.5 * p.Mass * p.Vel.LengthSq()
	}
	return total
}

// Index returns the position of the named particle, or -1.
func (w *World) Index(name string) int {
	for i := range w.Particles {
		if w.Particles[i].Name == name {
			return i
		}
	}
	return -1
}
