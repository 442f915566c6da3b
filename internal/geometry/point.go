// Package geometry holds the polygon clean-up, simplification, area and
// ordering helpers used to turn region contours into drawable outlines.
package geometry

import (
	"image"
	"math"
)

// Point is a position in data space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two screen points.
func Dist(a, b image.Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

// segmentDist returns the distance from p to the segment ab. The projection
// parameter is clamped to [0,1]; a degenerate segment measures to a.
func segmentDist(p, a, b image.Point) float64 {
	x, y := float64(p.X), float64(p.Y)
	x1, y1 := float64(a.X), float64(a.Y)
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)

	if dx == 0 && dy == 0 {
		return math.Hypot(x-x1, y-y1)
	}

	t := ((x-x1)*dx + (y-y1)*dy) / (dx*dx + dy*dy)
	t = max(0, min(1, t))
	return math.Hypot(x-(x1+t*dx), y-(y1+t*dy))
}
