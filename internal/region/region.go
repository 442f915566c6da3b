// Package region loads region documents: lists of coloured polygons produced
// by an image segmenter. Untrusted records are normalised into Regions and
// anything unusable is dropped.
package region

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/geometry"
)

// MinPoints is the fewest contour points a usable region has.
const MinPoints = 3

var (
	ErrNoValidPolygons = errors.New("no valid polygons")
	ErrNotRegionList   = errors.New("document is neither a list nor an object with a regions list")
)

// Region is one coloured polygon in data space.
type Region struct {
	Color   colorspec.Spec
	Contour []geometry.Point
}

// Area is the shoelace area of the contour.
func (r Region) Area() float64 {
	return geometry.Area(r.Contour)
}

type wireRegion struct {
	Color   []float64    `json:"color"`
	Contour [][2]float64 `json:"contour"`
}

// MarshalJSON writes the region in the document format it was read from.
func (r Region) MarshalJSON() ([]byte, error) {
	w := wireRegion{Color: r.Color, Contour: make([][2]float64, len(r.Contour))}
	for i, p := range r.Contour {
		w.Contour[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(w)
}

// Parse decodes a region document. The document is either a JSON array of
// records or an object with a "regions" array. Malformed records are dropped
// silently; ErrNoValidPolygons is returned when nothing usable remains.
func Parse(data []byte) ([]Region, error) {
	records, err := records(data)
	if err != nil {
		return nil, err
	}

	regions := make([]Region, 0, len(records))
	for _, raw := range records {
		r, ok := parseRecord(raw)
		if !ok || len(r.Contour) < MinPoints {
			continue
		}
		regions = append(regions, r)
	}

	if len(regions) == 0 {
		return nil, ErrNoValidPolygons
	}
	return regions, nil
}

// Load reads and parses a region document from r.
func Load(r io.Reader) ([]Region, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read regions: %w", err)
	}
	return Parse(data)
}

// LoadFile reads and parses the region document at path.
func LoadFile(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	return Parse(data)
}

// Encode writes regions as a JSON array that Parse accepts.
func Encode(regions []Region) ([]byte, error) {
	return json.Marshal(regions)
}

func records(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode regions: %w", io.ErrUnexpectedEOF)
	}

	switch data[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode regions: %w", err)
		}
		return list, nil
	case '{':
		var wrapped struct {
			Regions []json.RawMessage `json:"regions"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode regions: %w", err)
		}
		if wrapped.Regions == nil {
			return nil, ErrNotRegionList
		}
		return wrapped.Regions, nil
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("decode regions: invalid JSON")
		}
		return nil, ErrNotRegionList
	}
}

func parseRecord(raw json.RawMessage) (Region, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Region{}, false
	}

	r := Region{Color: colorspec.Default()}
	if c, ok := fields["color"]; ok {
		r.Color = parseColor(c)
	}

	var elems []json.RawMessage
	if c, ok := fields["contour"]; ok {
		if err := json.Unmarshal(c, &elems); err != nil {
			return Region{}, false
		}
	}

	r.Contour = make([]geometry.Point, 0, len(elems))
	for _, e := range elems {
		if p, ok := parsePoint(e); ok {
			r.Contour = append(r.Contour, p)
		}
	}
	return r, true
}

// parseColor returns nil for anything that is not a list of numbers, which
// resolves to white.
func parseColor(raw json.RawMessage) colorspec.Spec {
	var vals []any
	if err := json.Unmarshal(raw, &vals); err != nil || vals == nil {
		return nil
	}
	out := make(colorspec.Spec, len(vals))
	for i, v := range vals {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out[i] = f
	}
	return out
}

func parsePoint(raw json.RawMessage) (geometry.Point, bool) {
	var pair []any
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) < 2 {
		return geometry.Point{}, false
	}
	x, okX := pair[0].(float64)
	y, okY := pair[1].(float64)
	if !okX || !okY {
		return geometry.Point{}, false
	}
	return geometry.Point{X: x, Y: y}, true
}

// Contours returns every region's contour, in order.
func Contours(regions []Region) [][]geometry.Point {
	out := make([][]geometry.Point, len(regions))
	for i, r := range regions {
		out[i] = r.Contour
	}
	return out
}
