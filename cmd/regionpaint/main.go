// Command regionpaint paints a region document onto a raster, one region at
// a time, and writes the finished picture to a PNG.
//
//	regionpaint [-stats] [-o out.png] [regions.json]
//
// Without a file the built-in sample is painted. Settings come from
// REGIONPAINT_* environment variables and the optional REGIONPAINT_CONFIG
// TOML file. While animating, lines typed on stdin control playback: an
// empty line or space pauses, + and - change speed, 0 resets it, f finishes,
// r reshuffles and q quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gogpu/gg"

	"github.com/inamate/regionpaint/internal/canvas"
	"github.com/inamate/regionpaint/internal/config"
	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/region"
)

func main() {
	statsOnly := flag.Bool("stats", false, "print point statistics and exit")
	output := flag.String("o", "", "output PNG (default from REGIONPAINT_OUTPUT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *output != "" {
		cfg.Output = *output
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	gg.SetLogger(logger)

	path := flag.Arg(0)
	if *statsOnly {
		if err := printStats(path); err != nil {
			slog.Error("compute stats", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, path, logger); err != nil {
		slog.Error("paint regions", "error", err)
		os.Exit(1)
	}
}

func printStats(path string) error {
	if path == "" {
		return errors.New("stats needs a regions file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read regions file: %w", err)
	}
	counts, err := region.RawCounts(data)
	if err != nil {
		return err
	}
	fmt.Println(region.ComputeStats(counts))
	return nil
}

func loadRegions(path string) ([]region.Region, error) {
	if path == "" {
		return region.Sample(), nil
	}
	return region.LoadFile(path)
}

func run(cfg *config.Config, path string, logger *slog.Logger) error {
	regions, err := loadRegions(path)
	if err != nil {
		return err
	}

	raster, err := canvas.NewRaster(cfg.Width, cfg.Height, canvas.RasterOptions{
		Background: cfg.Background,
		FrameDir:   cfg.FrameDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer raster.Close()

	rng := geometry.NewRand(cfg.Seed)

	pipe := cfg.Pipeline()
	pipe.Rand = rng
	screen, tr := engine.Prepare(regions, raster, pipe)
	logger.Info("regions prepared",
		"loaded", len(regions),
		"drawable", len(screen),
		"order", pipe.Order,
		"scale", tr.Scale,
	)

	term := canvas.NewTerminal(raster, os.Stderr)
	if !cfg.Animate {
		engine.DrawBatched(term, screen, cfg.UpdateEvery)
		return save(raster, cfg.Output)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finished := make(chan struct{})
	var once sync.Once
	loop := engine.NewLoop(64)
	ctrl := engine.NewController(screen, term, loop, engine.Options{
		Delay:  cfg.Delay,
		Rand:   rng,
		Logger: logger,
		OnChange: func(st engine.State) {
			if st.Phase == engine.Finished {
				once.Do(func() { close(finished) })
			}
		},
	})

	go loop.Run(ctx)
	loop.Post(func() {
		ctrl.Bind(engine.DefaultKeymap())
		ctrl.Start()
	})

	inputDone := make(chan error, 1)
	go func() { inputDone <- term.ReadControls(ctx, os.Stdin, loop.Post) }()

	waitForExit(ctx, cfg.WaitAtEnd, finished, inputDone)

	var saveErr error
	if !loop.Do(func() { saveErr = save(raster, cfg.Output) }) {
		// The loop has stopped, so nothing else touches the raster.
		saveErr = save(raster, cfg.Output)
	}
	loop.Stop()
	return saveErr
}

// waitForExit blocks until the animation is over. Quitting ends it at once.
// If stdin closes first the animation runs to completion. Once finished,
// waitAtEnd keeps the program alive until the user quits or closes stdin.
func waitForExit(ctx context.Context, waitAtEnd bool, finished <-chan struct{}, inputDone <-chan error) {
	select {
	case <-finished:
		if !waitAtEnd {
			return
		}
		fmt.Fprintln(os.Stderr, "finished; enter q or press Ctrl-C to exit")
		select {
		case <-inputDone:
		case <-ctx.Done():
		}
	case err := <-inputDone:
		if errors.Is(err, canvas.ErrQuit) {
			return
		}
		select {
		case <-finished:
		case <-ctx.Done():
		}
	case <-ctx.Done():
	}
}

func save(raster *canvas.Raster, path string) error {
	if err := raster.Err(); err != nil {
		return err
	}
	if err := raster.SavePNG(path); err != nil {
		return err
	}
	slog.Info("saved", "path", path)
	return nil
}
