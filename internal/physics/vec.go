package physics

import "math"

// Vec2 is a 2D vector with value semantics.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }

func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec2) LengthSq() float64 { return v.X*v.X + v.Y*v.Y }

// Normalize returns the unit vector, or the zero vector when v has no
// length, so impulse directions of (0, 0) contribute nothing.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}
