package geometry

import "image"

// DefaultSimplifyMinPoints is the point count a contour must exceed before
// Simplify does anything.
const DefaultSimplifyMinPoints = 200

type span struct {
	start, end int
}

// Simplify runs Ramer-Douglas-Peucker over a screen-space contour using an
// explicit work list. It returns points unchanged when epsilon <= 0, when the
// contour has minPoints points or fewer, or when the result would have fewer
// than three points.
func Simplify(points []image.Point, epsilon float64, minPoints int) []image.Point {
	if epsilon <= 0 || len(points) <= minPoints || len(points) <= 3 {
		return points
	}

	last := len(points) - 1
	keep := make([]bool, len(points))
	keep[0], keep[last] = true, true

	stack := []span{{0, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		a, b := points[s.start], points[s.end]
		idx, dmax := -1, 0.0
		for i := s.start + 1; i < s.end; i++ {
			if d := segmentDist(points[i], a, b); d > dmax {
				idx, dmax = i, d
			}
		}

		if idx >= 0 && dmax > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.start, idx}, span{idx, s.end})
		}
	}

	out := make([]image.Point, 0, len(points))
	for i, k := range keep {
		if k {
			out = append(out, points[i])
		}
	}

	if len(out) < 3 {
		return points
	}
	return out
}
