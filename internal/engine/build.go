package engine

import (
	"slices"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/projection"
	"github.com/inamate/regionpaint/internal/region"
)

// PipelineOptions controls how regions become screen regions.
type PipelineOptions struct {
	Margin          float64
	SimplifyEpsilon float64
	// SimplifyMinPoints is passed to geometry.Simplify as is: only contours
	// with more points are simplified, so 0 simplifies every contour.
	SimplifyMinPoints int
	MinSegmentPx      float64
	Order             geometry.Order
	// Rand drives the random order. A nil Rand falls back to a time-seeded
	// source.
	Rand geometry.Shuffler

	// Width and Height are the logical canvas size used when the canvas
	// cannot report its own.
	Width  int
	Height int
}

// Prepare orders regions, fits them to the canvas and converts each into a
// ScreenRegion. Regions whose cleaned outline has fewer than three points
// are left out. The input slice is not modified.
func Prepare(regions []region.Region, canvas Sizer, opts PipelineOptions) ([]ScreenRegion, projection.Transform) {
	order := opts.Order
	if order == "" {
		order = geometry.OrderArea
	}
	ordered := slices.Clone(regions)
	geometry.Sort(ordered, order, region.Region.Area, opts.Rand)

	w, h := opts.Width, opts.Height
	if canvas != nil {
		if cw, ch, ok := canvas.Size(); ok && cw > 0 && ch > 0 {
			w, h = cw, ch
		}
	}

	tr := projection.Fit(region.Contours(ordered), w, h, opts.Margin)

	out := make([]ScreenRegion, 0, len(ordered))
	for _, r := range ordered {
		pts := geometry.Cleanup(tr.ApplyAll(r.Contour), opts.MinSegmentPx)
		pts = geometry.Simplify(pts, opts.SimplifyEpsilon, opts.SimplifyMinPoints)
		if len(pts) < region.MinPoints {
			continue
		}
		out = append(out, ScreenRegion{Color: colorspec.Resolve(r.Color), Points: pts})
	}
	return out, tr
}
