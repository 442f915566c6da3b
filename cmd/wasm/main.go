//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"
	"time"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/region"
)

const (
	defaultDelay  = 80 * time.Millisecond
	defaultMargin = 0.10
	minSegmentPx  = 0.8
)

var (
	regions    []region.Region
	surface    *htmlCanvas
	controller *engine.Controller
	screen     []engine.ScreenRegion
	keyHandler js.Func
	currentRun uint64
)

func main() {
	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("start", js.FuncOf(start))
	api.Set("input", js.FuncOf(input))
	api.Set("control", js.FuncOf(control))

	// --- Queries (frontend ← engine) ---
	api.Set("getState", js.FuncOf(getState))
	api.Set("getStats", js.FuncOf(getStats))
	api.Set("getDrawCommands", js.FuncOf(getDrawCommands))

	js.Global().Set("regionPaint", api)
	js.Global().Set("regionPaintWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}

	loaded, err := region.Parse([]byte(args[0].String()))
	if err != nil {
		return errorResult(err)
	}
	regions = loaded
	return js.ValueOf(map[string]interface{}{"ok": true, "regions": len(regions)})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	regions = region.Sample()
	return js.ValueOf(map[string]interface{}{"ok": true, "regions": len(regions)})
}

type startOptions struct {
	DelayMs    int     `json:"delayMs"`
	Order      string  `json:"order"`
	Background string  `json:"background"`
	Margin     float64 `json:"margin"`
	Seed       uint64  `json:"seed"`

	SimplifyEpsilon   float64 `json:"simplifyEpsilon"`
	SimplifyMinPoints int     `json:"simplifyMinPoints"`
}

// start(canvas, optionsJSON?, onStatus?) prepares the loaded regions for the
// canvas and begins playback. Keyboard controls are bound on the document.
func start(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return js.ValueOf(map[string]interface{}{"error": "missing canvas element"})
	}
	if len(regions) == 0 {
		return errorResult(region.ErrNoValidPolygons)
	}

	opts := startOptions{
		Margin:            defaultMargin,
		Background:        "black",
		SimplifyMinPoints: geometry.DefaultSimplifyMinPoints,
	}
	if len(args) > 1 && args[1].Type() == js.TypeString {
		if err := json.Unmarshal([]byte(args[1].String()), &opts); err != nil {
			return errorResult(err)
		}
	}
	var onStatus js.Value
	if len(args) > 2 {
		onStatus = args[2]
	}

	order, err := geometry.ParseOrder(opts.Order)
	if err != nil {
		return errorResult(err)
	}
	bg, err := colorspec.Parse(opts.Background)
	if err != nil {
		return errorResult(err)
	}
	delay := defaultDelay
	if opts.DelayMs > 0 {
		delay = time.Duration(opts.DelayMs) * time.Millisecond
	}
	rng := geometry.NewRand(opts.Seed)

	currentRun++
	surface = newHTMLCanvas(args[0], colorspec.HexOf(bg), onStatus)
	screen, _ = engine.Prepare(regions, surface, engine.PipelineOptions{
		Margin:            opts.Margin,
		SimplifyEpsilon:   opts.SimplifyEpsilon,
		SimplifyMinPoints: opts.SimplifyMinPoints,
		MinSegmentPx:      minSegmentPx,
		Order:             order,
		Rand:              rng,
		Width:             1000,
		Height:            800,
	})

	controller = engine.NewController(screen, surface, timeoutScheduler{run: currentRun}, engine.Options{
		Delay: delay,
		Rand:  rng,
	})
	controller.Bind(engine.DefaultKeymap())
	bindKeyboard()

	surface.Clear()
	controller.Start()
	return js.ValueOf(map[string]interface{}{"ok": true, "regions": len(screen)})
}

func bindKeyboard() {
	if keyHandler.Truthy() {
		return
	}
	keyHandler = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if surface != nil && len(args) > 0 {
			surface.Dispatch(keyTrigger(args[0]))
		}
		return nil
	})
	js.Global().Get("document").Call("addEventListener", "keydown", keyHandler)
}

func input(this js.Value, args []js.Value) interface{} {
	if surface == nil || len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(surface.Dispatch(engine.Trigger(args[0].String())))
}

func control(this js.Value, args []js.Value) interface{} {
	if controller == nil || len(args) < 1 {
		return js.ValueOf(false)
	}
	ctl, ok := engine.ParseControl(args[0].String())
	if !ok {
		return js.ValueOf(false)
	}
	controller.Handle(ctl)
	return js.ValueOf(true)
}

func getState(this js.Value, args []js.Value) interface{} {
	if controller == nil {
		return js.ValueOf("{}")
	}
	data, err := json.Marshal(controller.State())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getStats(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(region.ComputeStats(region.Counts(regions)).String())
}

// getDrawCommands returns the prepared regions, in drawing order, as a JSON
// array of polygon commands.
func getDrawCommands(this js.Value, args []js.Value) interface{} {
	cmds := make([]engine.DrawCommand, 0, len(screen))
	for _, r := range screen {
		cmds = append(cmds, engine.PolygonCommand(r.Color, r.Points))
	}
	data, err := engine.DrawCommandsToJSON(cmds)
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(data)
}
