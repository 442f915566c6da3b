// Package colorspec resolves the loosely typed colour triples found in region
// documents into #rrggbb strings.
//
// A triple is read, in priority order, as HSV with the hue in radians, as
// normalised RGB, and finally as 0-255 RGB. The first two readings overlap:
// a triple such as [1, 1, 1] satisfies the HSV ranges and is therefore never
// read as normalised white. The overlap is kept as is.
package colorspec

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// White is returned for anything that is not exactly three numbers.
const White = "#ffffff"

const hueSlack = 1e-6

var ErrUnknownColor = errors.New("unknown color")

// Spec is a raw colour triple as found in a document. A nil Spec means the
// document carried a colour that was not a list of numbers.
type Spec []float64

// Default is the colour assumed for records that carry none.
func Default() Spec {
	return Spec{255, 255, 255}
}

// Resolve returns the #rrggbb form of s.
func Resolve(s Spec) string {
	if len(s) != 3 {
		return White
	}
	c0, c1, c2 := s[0], s[1], s[2]

	switch {
	case in01(c1) && in01(c2) && c0 >= 0 && c0 <= 2*math.Pi+hueSlack:
		r, g, b := hsvRadians(c0, c1, c2)
		return hex01(r, g, b)
	case in01(c0) && in01(c1) && in01(c2):
		return hex01(c0, c1, c2)
	default:
		return hex255(c0, c1, c2)
	}
}

// RGBA resolves s to an opaque color.RGBA.
func RGBA(s Spec) color.RGBA {
	c, err := colorful.Hex(Resolve(s))
	if err != nil {
		return color.RGBA{255, 255, 255, 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

func in01(v float64) bool {
	return v >= 0 && v <= 1
}

// hsvRadians converts using the six-sector table after folding the hue into
// [0,1).
func hsvRadians(hRad, s, v float64) (r, g, b float64) {
	h := math.Mod(hRad, 2*math.Pi) / (2 * math.Pi)
	i := int(math.Floor(h * 6))
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return clamp(r, 0, 1), clamp(g, 0, 1), clamp(b, 0, 1)
}

func hex01(r, g, b float64) string {
	return format(channel(r*255), channel(g*255), channel(b*255))
}

func hex255(r, g, b float64) string {
	return format(channel(r), channel(g), channel(b))
}

func channel(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(clamp(v, 0, 255)))
}

func format(r, g, b uint8) string {
	c, _ := colorful.MakeColor(color.RGBA{r, g, b, 255})
	return c.Hex()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Parse reads a background colour given as #rgb, #rrggbb or an SVG colour
// name such as "black" or "navy".
func Parse(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(expandShortHex(s))
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
		}
		r, g, b := c.RGB255()
		return color.RGBA{r, g, b, 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// HexOf formats an opaque colour as #rrggbb.
func HexOf(c color.RGBA) string {
	return format(c.R, c.G, c.B)
}

func expandShortHex(s string) string {
	if len(s) != 4 {
		return s
	}
	return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
}
