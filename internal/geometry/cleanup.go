package geometry

import "image"

// Cleanup drops consecutive duplicates and, when minSegPx > 0, any point
// closer than minSegPx to the last kept point. The first point is always
// kept. The input slice is not modified.
func Cleanup(points []image.Point, minSegPx float64) []image.Point {
	if len(points) == 0 {
		return points
	}

	out := make([]image.Point, 0, len(points))
	out = append(out, points[0])
	last := points[0]

	for _, p := range points[1:] {
		if p == last {
			continue
		}
		if minSegPx > 0 && Dist(last, p) < minSegPx {
			continue
		}
		out = append(out, p)
		last = p
	}

	return out
}
