package viz

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/physics"
)

// Viewport maps world coordinates onto canvas pixels, y-up to y-down.
type Viewport struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// FitViewport frames the particle bounding box with 10% padding on each
// side, never shrinking below 2 world units per axis so a single particle
// still gets a sensible frame.
func FitViewport(particles []physics.Particle) Viewport {
	if len(particles) == 0 {
		return Viewport{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}
	}

	v := Viewport{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for i := range particles {
		p := particles[i].Pos
		v.MinX = math.Min(v.MinX, p.X)
		v.MaxX = math.Max(v.MaxX, p.X)
		v.MinY = math.Min(v.MinY, p.Y)
		v.MaxY = math.Max(v.MaxY, p.Y)
	}

	v.MinX, v.MaxX = pad(v.MinX, v.MaxX)
	v.MinY, v.MaxY = pad(v.MinY, v.MaxY)
	return v
}

func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span < 2 {
		mid := (lo + hi) / 2
		lo, hi = mid-1, mid+1
		span = 2
	}
	return lo - 0.1*span, hi + 0.1*span
}

func (v Viewport) project(p physics.Vec2, pxWidth, pxHeight int) (int, int) {
	x := (p.X - v.MinX) / (v.MaxX - v.MinX) * float64(pxWidth-1)
	y := (1 - (p.Y-v.MinY)/(v.MaxY-v.MinY)) * float64(pxHeight-1)
	return int(math.Round(x)), int(math.Round(y))
}

// RenderScene draws the world onto a fresh canvas: springs as lines,
// particles as dots labeled by name.
func RenderScene(w *physics.World, width, height int) string {
	c := NewCanvas(width, height)
	v := FitViewport(w.Particles)
	pxW, pxH := width*2, height*4

	for _, f := range w.Forces {
		if f.Kind != physics.ForceSpring {
			continue
		}
		x0, y0 := v.project(w.Particles[f.A].Pos, pxW, pxH)
		x1, y1 := v.project(w.Particles[f.B].Pos, pxW, pxH)
		c.DrawLine(x0, y0, x1, y1)
	}

	for i := range w.Particles {
		p := &w.Particles[i]
		x, y := v.project(p.Pos, pxW, pxH)
		c.Set(x, y)
		// Heavier particles get a fatter dot.
		if p.Mass >= 10 {
			c.Set(x+1, y)
			c.Set(x, y+1)
			c.Set(x+1, y+1)
		}
		c.Label(x/2+1, y/4, p.Name)
	}
	return c.String()
}
