//go:build js && wasm

package main

import (
	"image"
	"syscall/js"
	"time"

	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/projection"
)

// htmlCanvas draws on a <canvas> element through its 2D context.
type htmlCanvas struct {
	el         js.Value
	ctx        js.Value
	background string
	onStatus   js.Value
	handlers   map[engine.Trigger]func()
}

func newHTMLCanvas(el js.Value, background string, onStatus js.Value) *htmlCanvas {
	return &htmlCanvas{
		el:         el,
		ctx:        el.Call("getContext", "2d"),
		background: background,
		onStatus:   onStatus,
		handlers:   make(map[engine.Trigger]func()),
	}
}

func (c *htmlCanvas) Size() (int, int, bool) {
	w, h := c.el.Get("width").Int(), c.el.Get("height").Int()
	return w, h, w > 0 && h > 0
}

func (c *htmlCanvas) DrawPolygon(color string, points []image.Point) {
	if len(points) < 3 {
		return
	}
	w, h, _ := c.Size()
	m := projection.Viewport(w, h)

	c.ctx.Call("save")
	c.ctx.Call("setTransform", m[0], m[1], m[2], m[3], m[4], m[5])
	c.ctx.Call("beginPath")
	c.ctx.Call("moveTo", points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.ctx.Call("lineTo", p.X, p.Y)
	}
	c.ctx.Call("closePath")
	c.ctx.Set("fillStyle", color)
	c.ctx.Set("strokeStyle", color)
	c.ctx.Set("lineJoin", "round")
	c.ctx.Call("fill")
	c.ctx.Call("stroke")
	c.ctx.Call("restore")
}

func (c *htmlCanvas) SetStatus(text string) {
	if c.onStatus.Type() == js.TypeFunction {
		c.onStatus.Invoke(text)
	}
}

func (c *htmlCanvas) OnInput(trigger engine.Trigger, handler func()) error {
	c.handlers[trigger] = handler
	return nil
}

func (c *htmlCanvas) Dispatch(trigger engine.Trigger) bool {
	h, ok := c.handlers[trigger]
	if ok {
		h()
	}
	return ok
}

func (c *htmlCanvas) Clear() {
	w, h, _ := c.Size()
	c.ctx.Call("save")
	c.ctx.Call("setTransform", 1, 0, 0, 1, 0, 0)
	c.ctx.Set("fillStyle", c.background)
	c.ctx.Call("fillRect", 0, 0, w, h)
	c.ctx.Call("restore")
}

// Flush is a no-op; the browser repaints after each callback returns.
func (c *htmlCanvas) Flush() {}

// keyTrigger maps a KeyboardEvent to a trigger name.
func keyTrigger(event js.Value) engine.Trigger {
	switch event.Get("code").String() {
	case "NumpadAdd":
		return "KP_Add"
	case "NumpadSubtract":
		return "KP_Subtract"
	}
	switch key := event.Get("key").String(); key {
	case " ":
		return "space"
	case "+":
		return "plus"
	case "=":
		return "equal"
	case "-":
		return "minus"
	default:
		return engine.Trigger(key)
	}
}

// timeoutScheduler runs callbacks through the browser's setTimeout, which
// keeps every controller call on the JS event loop. Callbacks scheduled by an
// earlier run are dropped once start is called again.
type timeoutScheduler struct {
	run uint64
}

func (s timeoutScheduler) After(d time.Duration, fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cb.Release()
		if s.run == currentRun {
			fn()
		}
		return nil
	})
	js.Global().Call("setTimeout", cb, d.Milliseconds())
}
