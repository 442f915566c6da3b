package geometry

import "math"

// Area returns the unsigned shoelace area of the closed polygon described by
// points. Fewer than three points have no area.
func Area(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	var s float64
	for i := range n {
		p, q := points[i], points[(i+1)%n]
		s += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(s) * 0.5
}

// Bounds returns the axis-aligned box containing every point of every
// contour. ok is false when there are no points.
func Bounds(contours ...[]Point) (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)

	for _, c := range contours {
		for _, p := range c {
			minX = min(minX, p.X)
			minY = min(minY, p.Y)
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
			ok = true
		}
	}
	return minX, minY, maxX, maxY, ok
}
