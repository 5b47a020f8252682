package runtime

// wellInstance is an index-resolved potential well: a one-sided linear
// restoring pull anchored at its threshold.
type wellInstance struct {
	name      string
	target    int
	obs       observable
	threshold float64
	depth     float64
}

// applyWells nudges each well's target velocity toward the threshold
// whenever the monitored observable sits at or above it. The observable
// is read from its own particle; the displacement uses the target's
// coordinate. Distance observables are accepted but apply no force, since
// the language defines no direction for them.
func (c *Context) applyWells() {
	for i := range c.wells {
		w := &c.wells[i]
		if w.obs.value(&c.world) < w.threshold {
			continue
		}

		p := &c.world.Particles[w.target]
		switch w.obs.kind {
		case obsX:
			accel := -w.depth * (p.Pos.X - w.threshold) / p.Mass
			p.Vel.X += accel * c.dt
		case obsY:
			accel := -w.depth * (p.Pos.Y - w.threshold) / p.Mass
			p.Vel.Y += accel * c.dt
		case obsDistance:
			// Documented no-op.
		}
	}
}
