// Package projection maps data-space contours onto a centred canvas.
package projection

import (
	"image"
	"math"

	"github.com/inamate/regionpaint/internal/geometry"
)

const (
	// MaxMargin is the largest margin fraction Fit honours.
	MaxMargin = 0.3

	// minExtent floors degenerate bounding box dimensions.
	minExtent = 1e-9

	// safety shrinks the fitted scale slightly so rounding never clips an
	// edge.
	safety = 0.995
)

// Transform is a uniform scale about the data centre (CX, CY). Canvas
// coordinates have their origin at the canvas centre.
type Transform struct {
	Scale float64 `json:"scale"`
	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
}

// Fit computes the transform that centres the union bounding box of contours
// on a width x height canvas, leaving margin (a fraction of each dimension)
// empty on every side.
func Fit(contours [][]geometry.Point, width, height int, margin float64) Transform {
	minX, minY, maxX, maxY, ok := geometry.Bounds(contours...)
	if !ok {
		return Transform{Scale: 1}
	}

	dataW := max(minExtent, maxX-minX)
	dataH := max(minExtent, maxY-minY)

	margin = max(0, min(MaxMargin, margin))
	availW := float64(width) * (1 - 2*margin)
	availH := float64(height) * (1 - 2*margin)

	fit := min(availW/dataW, availH/dataH)
	return Transform{
		Scale: max(minExtent, fit*safety),
		CX:    (minX + maxX) / 2,
		CY:    (minY + maxY) / 2,
	}
}

// Apply maps a data point to integer canvas coordinates.
func (t Transform) Apply(p geometry.Point) image.Point {
	return image.Pt(
		int(math.Round((p.X-t.CX)*t.Scale)),
		int(math.Round((p.Y-t.CY)*t.Scale)),
	)
}

// ApplyAll maps a whole contour.
func (t Transform) ApplyAll(points []geometry.Point) []image.Point {
	out := make([]image.Point, len(points))
	for i, p := range points {
		out[i] = t.Apply(p)
	}
	return out
}

// Affine returns the unrounded data-to-canvas map. Composed with Viewport it
// takes data coordinates straight to pixels.
func (t Transform) Affine() Affine {
	return translation(-t.CX, -t.CY).Then(scaling(t.Scale))
}
