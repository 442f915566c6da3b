package region

import (
	"math"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/geometry"
)

// Sample returns a small built-in document: a flower whose petals use
// HSV-radian colours, with a stem and leaves in 0-255 RGB. It is used for the
// demo session and in tests.
func Sample() []Region {
	var out []Region

	out = append(out, Region{
		Color:   colorspec.Spec{34, 110, 46},
		Contour: []geometry.Point{{-4, 40}, {4, 40}, {6, 160}, {-6, 160}},
	})
	out = append(out,
		Region{Color: colorspec.Spec{60, 150, 70}, Contour: ellipse(-28, 105, 26, 10, 0.5, 24)},
		Region{Color: colorspec.Spec{60, 150, 70}, Contour: ellipse(28, 120, 26, 10, -0.5, 24)},
	)

	const petals = 10
	for i := range petals {
		a := 2 * math.Pi * float64(i) / petals
		out = append(out, Region{
			Color:   colorspec.Spec{5.9 - 0.05*float64(i), 0.75, 0.95},
			Contour: ellipse(34*math.Cos(a), 34*math.Sin(a), 30, 14, a, 40),
		})
	}

	for i := range petals / 2 {
		a := 2*math.Pi*float64(i)/(petals/2) + 0.3
		out = append(out, Region{
			Color:   colorspec.Spec{0.15, 0.6, 1},
			Contour: ellipse(16*math.Cos(a), 16*math.Sin(a), 16, 8, a, 32),
		})
	}

	out = append(out, Region{
		Color:   colorspec.Spec{0.8, 0.9, 0.6},
		Contour: ellipse(0, 0, 10, 10, 0, 36),
	})
	return out
}

func ellipse(cx, cy, rx, ry, rot float64, n int) []geometry.Point {
	sin, cos := math.Sincos(rot)
	pts := make([]geometry.Point, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		x, y := rx*math.Cos(t), ry*math.Sin(t)
		pts[i] = geometry.Point{X: cx + x*cos - y*sin, Y: cy + x*sin + y*cos}
	}
	return pts
}
