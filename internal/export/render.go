// Package export renders stored documents server-side: a still PNG of the
// finished picture, or a GIF/MP4 timelapse encoded by ffmpeg from batch
// frames.
package export

import (
	"log/slog"

	"github.com/inamate/regionpaint/internal/canvas"
	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/region"
)

type RenderOptions struct {
	Pipeline   engine.PipelineOptions
	Background string
	Logger     *slog.Logger
}

// Render draws every region onto a new raster of the pipeline's size.
func Render(regions []region.Region, opts RenderOptions) (*canvas.Raster, error) {
	r, err := canvas.NewRaster(opts.Pipeline.Width, opts.Pipeline.Height, canvas.RasterOptions{
		Background: opts.Background,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	screen, _ := engine.Prepare(regions, r, opts.Pipeline)
	engine.DrawBatched(r, screen, max(1, len(screen)))
	if err := r.Err(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Frames writes frame_00000.png, frame_00001.png, ... into dir, one per
// batch of regions, and returns how many were written.
func Frames(regions []region.Region, opts RenderOptions, dir string, batch int) (int, error) {
	r, err := canvas.NewRaster(opts.Pipeline.Width, opts.Pipeline.Height, canvas.RasterOptions{
		Background: opts.Background,
		FrameDir:   dir,
		Logger:     opts.Logger,
	})
	if err != nil {
		return 0, err
	}
	defer r.Close()

	screen, _ := engine.Prepare(regions, r, opts.Pipeline)
	engine.DrawBatched(r, screen, batch)
	return r.Frames(), r.Err()
}
