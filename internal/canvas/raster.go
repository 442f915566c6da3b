// Package canvas provides drawing surfaces for the engine: an in-memory
// raster backed by gg and a terminal wrapper that adds a status line and
// stdin controls.
package canvas

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/engine"
)

const outlineWidth = 1.0

type RasterOptions struct {
	Background string
	// FrameDir, if set, receives a numbered PNG on every Flush.
	FrameDir string
	Logger   *slog.Logger
}

// Raster is a software canvas. Polygon coordinates are centred, so the
// context is translated to the pixel centre once at construction.
type Raster struct {
	dc         *gg.Context
	width      int
	height     int
	background gg.RGBA
	frameDir   string
	frames     int
	status     string
	err        error
	logger     *slog.Logger
}

func NewRaster(width, height int, opts RasterOptions) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster size %dx%d is not positive", width, height)
	}
	name := opts.Background
	if name == "" {
		name = "black"
	}
	bg, err := colorspec.Parse(name)
	if err != nil {
		return nil, err
	}
	if opts.FrameDir != "" {
		if err := os.MkdirAll(opts.FrameDir, 0o755); err != nil {
			return nil, fmt.Errorf("create frame dir: %w", err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dc := gg.NewContext(width, height)
	dc.Translate(float64(width)/2, float64(height)/2)
	dc.SetLineWidth(outlineWidth)
	dc.SetLineJoin(gg.LineJoinRound)

	r := &Raster{
		dc:         dc,
		width:      width,
		height:     height,
		background: gg.FromColor(bg),
		frameDir:   opts.FrameDir,
		logger:     logger,
	}
	r.Clear()
	return r, nil
}

func (r *Raster) Size() (int, int, bool) {
	return r.width, r.height, true
}

// DrawPolygon fills the outline and strokes it in the same colour so that
// adjacent regions leave no hairline gaps.
func (r *Raster) DrawPolygon(color string, points []image.Point) {
	if len(points) < 3 {
		return
	}
	r.dc.ClearPath()
	r.dc.MoveTo(float64(points[0].X), float64(points[0].Y))
	for _, p := range points[1:] {
		r.dc.LineTo(float64(p.X), float64(p.Y))
	}
	r.dc.ClosePath()
	r.dc.SetHexColor(color)
	if err := r.dc.FillPreserve(); err != nil {
		r.fail(fmt.Errorf("fill polygon: %w", err))
	}
	if err := r.dc.Stroke(); err != nil {
		r.fail(fmt.Errorf("stroke polygon: %w", err))
	}
}

func (r *Raster) SetStatus(text string) {
	r.status = text
}

// Status returns the last status text.
func (r *Raster) Status() string {
	return r.status
}

func (r *Raster) OnInput(engine.Trigger, func()) error {
	return engine.ErrInputUnsupported
}

func (r *Raster) Clear() {
	r.dc.ClearPath()
	r.dc.ClearWithColor(r.background)
}

// Flush writes the next numbered frame when a frame directory is set.
func (r *Raster) Flush() {
	if r.frameDir == "" {
		return
	}
	path := filepath.Join(r.frameDir, fmt.Sprintf("frame_%05d.png", r.frames))
	if err := r.dc.SavePNG(path); err != nil {
		r.fail(fmt.Errorf("save frame: %w", err))
		return
	}
	r.frames++
}

// Frames returns how many frames Flush has written.
func (r *Raster) Frames() int {
	return r.frames
}

// Err returns the first drawing or frame error, if any.
func (r *Raster) Err() error {
	return r.err
}

func (r *Raster) Image() image.Image {
	return r.dc.Image()
}

func (r *Raster) SavePNG(path string) error {
	if err := r.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}

func (r *Raster) EncodePNG(w io.Writer) error {
	return r.dc.EncodePNG(w)
}

func (r *Raster) Close() error {
	return r.dc.Close()
}

func (r *Raster) fail(err error) {
	if r.err == nil {
		r.err = err
	}
	r.logger.Warn("raster draw failed", "error", err)
}
