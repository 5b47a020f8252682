package runtime

import (
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/ast"
)

// DetectorValue is one named scalar read from particle state.
type DetectorValue struct {
	Name  string
	Value float64
}

// EvaluateDetectors reads every detector against the context's current
// state, in declaration order. It works mid-run too; the watch TUI calls
// it every frame. A Position detector reports the particle's x-coordinate
// only. An unresolvable name here means an analyzer invariant broke, so
// it is a hard error rather than a skip.
func EvaluateDetectors(c *Context) ([]DetectorValue, error) {
	out := make([]DetectorValue, 0, len(c.detectors))
	for _, det := range c.detectors {
		v, err := c.detectorValue(det)
		if err != nil {
			return nil, err
		}
		out = append(out, DetectorValue{Name: det.Name, Value: v})
	}
	return out, nil
}

func (c *Context) detectorValue(det ast.DetectorDecl) (float64, error) {
	switch k := det.Kind.(type) {
	case ast.Position:
		i := c.world.Index(k.Particle)
		if i < 0 {
			return 0, fmt.Errorf("detector %s: %w: '%s' not found", det.Name, ErrUnknownParticle, k.Particle)
		}
		return c.world.Particles[i].Pos.X, nil
	case ast.Distance:
		a := c.world.Index(k.A)
		if a < 0 {
			return 0, fmt.Errorf("detector %s: %w: '%s' not found", det.Name, ErrUnknownParticle, k.A)
		}
		b := c.world.Index(k.B)
		if b < 0 {
			return 0, fmt.Errorf("detector %s: %w: '%s' not found", det.Name, ErrUnknownParticle, k.B)
		}
		return c.world.Distance(a, b), nil
	}
	return 0, fmt.Errorf("detector %s: unhandled kind %T", det.Name, det.Kind)
}
