package projection

import "github.com/inamate/regionpaint/internal/geometry"

// Affine is a 2D affine map stored as [a, b, c, d, e, f], the order a
// Canvas2D setTransform call takes:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type Affine [6]float64

func translation(tx, ty float64) Affine {
	return Affine{1, 0, 0, 1, tx, ty}
}

func scaling(s float64) Affine {
	return Affine{s, 0, 0, s, 0, 0}
}

// Viewport maps centred canvas coordinates onto a width x height pixel
// surface whose origin is its top-left corner.
func Viewport(width, height int) Affine {
	return translation(float64(width)/2, float64(height)/2)
}

// Then returns the map that applies m first and next second.
func (m Affine) Then(next Affine) Affine {
	return Affine{
		next[0]*m[0] + next[2]*m[1],
		next[1]*m[0] + next[3]*m[1],
		next[0]*m[2] + next[2]*m[3],
		next[1]*m[2] + next[3]*m[3],
		next[0]*m[4] + next[2]*m[5] + next[4],
		next[1]*m[4] + next[3]*m[5] + next[5],
	}
}

// Map applies m to p.
func (m Affine) Map(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Slice returns the coefficients as a slice, for JSON payloads.
func (m Affine) Slice() []float64 {
	return m[:]
}
