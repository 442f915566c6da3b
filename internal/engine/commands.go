package engine

import (
	"encoding/json"
	"image"
)

// Draw command operations.
const (
	OpPolygon = "polygon"
	OpClear   = "clear"
	OpStatus  = "status"
	OpFlush   = "flush"
)

// DrawCommand represents a single drawing operation for a remote canvas to
// execute. Points are in centred canvas coordinates; Transform, when set,
// maps them to the receiver's pixel space.
type DrawCommand struct {
	Op        string    `json:"op"`
	Fill      string    `json:"fill,omitempty"`
	Points    []int     `json:"points,omitempty"` // flattened x0, y0, x1, y1, ...
	Text      string    `json:"text,omitempty"`
	Transform []float64 `json:"transform,omitempty"`
}

// PolygonCommand builds the command for one filled outline.
func PolygonCommand(color string, points []image.Point) DrawCommand {
	flat := make([]int, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return DrawCommand{Op: OpPolygon, Fill: color, Points: flat}
}

// PolygonPoints unflattens a polygon command's points.
func (c DrawCommand) PolygonPoints() []image.Point {
	out := make([]image.Point, 0, len(c.Points)/2)
	for i := 0; i+1 < len(c.Points); i += 2 {
		out = append(out, image.Pt(c.Points[i], c.Points[i+1]))
	}
	return out
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// Recorder is a Canvas that turns every call into a DrawCommand and hands it
// to Emit. Input bindings are kept so the owner can dispatch triggers that
// arrive from elsewhere.
type Recorder struct {
	Width, Height int
	Emit          func(DrawCommand)

	handlers map[Trigger]func()
}

// NewRecorder creates a recorder for a width x height canvas.
func NewRecorder(width, height int, emit func(DrawCommand)) *Recorder {
	return &Recorder{Width: width, Height: height, Emit: emit, handlers: make(map[Trigger]func())}
}

func (r *Recorder) Size() (int, int, bool) {
	return r.Width, r.Height, r.Width > 0 && r.Height > 0
}

func (r *Recorder) DrawPolygon(color string, points []image.Point) {
	r.emit(PolygonCommand(color, points))
}

func (r *Recorder) SetStatus(text string) {
	r.emit(DrawCommand{Op: OpStatus, Text: text})
}

func (r *Recorder) Clear() {
	r.emit(DrawCommand{Op: OpClear})
}

func (r *Recorder) Flush() {
	r.emit(DrawCommand{Op: OpFlush})
}

func (r *Recorder) OnInput(trigger Trigger, handler func()) error {
	if r.handlers == nil {
		r.handlers = make(map[Trigger]func())
	}
	r.handlers[trigger] = handler
	return nil
}

// Dispatch runs the handler bound to trigger. It reports false for unbound
// triggers.
func (r *Recorder) Dispatch(trigger Trigger) bool {
	h, ok := r.handlers[trigger]
	if !ok {
		return false
	}
	h()
	return true
}

func (r *Recorder) emit(cmd DrawCommand) {
	if r.Emit != nil {
		r.Emit(cmd)
	}
}
