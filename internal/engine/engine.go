package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/inamate/regionpaint/internal/geometry"
)

// Phase is the controller's playback phase.
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Finished
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, q := range []Phase{Idle, Running, Paused, Finished} {
		if q.String() == string(text) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// StatusDone is shown once every region has been drawn.
const StatusDone = "done"

// MaxDelay is the slowest pace. Slowing down stops growing the delay here.
const MaxDelay = time.Minute

const (
	delayUnit   = time.Millisecond
	speedFactor = 0.8
)

// State is a snapshot of the controller.
type State struct {
	Index int           `json:"index"`
	Count int           `json:"count"`
	Phase Phase         `json:"phase"`
	Delay time.Duration `json:"delay"`
}

// Scheduler runs fn after d on the goroutine that owns the controller.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Options configures a Controller.
type Options struct {
	Delay time.Duration
	// Rand shuffles regions on restart. A nil Rand makes restart keep the
	// current order.
	Rand   geometry.Shuffler
	Logger *slog.Logger
	// OnChange, if set, observes every state transition.
	OnChange func(State)
}

// Controller draws screen regions one at a time against a Canvas. It is not
// safe for concurrent use: every method, and every callback it schedules,
// must run on the same goroutine.
type Controller struct {
	canvas  Canvas
	sched   Scheduler
	regions []ScreenRegion

	initialDelay time.Duration
	rng          geometry.Shuffler
	logger       *slog.Logger
	onChange     func(State)

	index int
	phase Phase
	delay time.Duration

	// gen invalidates ticks scheduled before the latest pause, resume,
	// restart or finish.
	gen uint64
}

// NewController creates an idle controller. The controller owns regions from
// here on; shuffle-restart reorders it in place.
func NewController(regions []ScreenRegion, canvas Canvas, sched Scheduler, opts Options) *Controller {
	delay := min(MaxDelay, max(delayUnit, opts.Delay))
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		canvas:       canvas,
		sched:        sched,
		regions:      regions,
		initialDelay: delay,
		rng:          opts.Rand,
		logger:       logger,
		onChange:     opts.OnChange,
		delay:        delay,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return State{Index: c.index, Count: len(c.regions), Phase: c.phase, Delay: c.delay}
}

// Regions returns the regions in their current drawing order.
func (c *Controller) Regions() []ScreenRegion {
	return c.regions
}

// Start begins playback from the first region.
func (c *Controller) Start() {
	c.index = 0
	c.phase = Running
	c.gen++
	c.notify()
	c.tick(c.gen)
}

func (c *Controller) tick(gen uint64) {
	if gen != c.gen || c.phase != Running {
		return
	}
	if c.index >= len(c.regions) {
		c.finish()
		return
	}

	r := c.regions[c.index]
	c.canvas.DrawPolygon(r.Color, r.Points)
	c.index++
	c.canvas.SetStatus(fmt.Sprintf("%d/%d", c.index, len(c.regions)))

	if c.index >= len(c.regions) {
		c.finish()
		return
	}

	c.canvas.Flush()
	c.notify()
	c.sched.After(c.delay, func() { c.tick(gen) })
}

func (c *Controller) finish() {
	c.phase = Finished
	c.gen++
	c.canvas.SetStatus(StatusDone)
	c.canvas.Flush()
	c.logger.Debug("animation finished", "regions", len(c.regions))
	c.notify()
}

// TogglePause pauses a running animation or resumes a paused one. Resuming
// draws the next region immediately.
func (c *Controller) TogglePause() {
	switch c.phase {
	case Running:
		c.phase = Paused
		c.gen++
		c.notify()
	case Paused:
		c.phase = Running
		c.gen++
		c.notify()
		c.tick(c.gen)
	}
}

// SpeedUp shortens the delay between regions.
func (c *Controller) SpeedUp() {
	d := time.Duration(float64(c.delay) * speedFactor).Truncate(delayUnit)
	c.delay = max(delayUnit, d)
	c.notify()
}

// SpeedDown lengthens the delay between regions by at least one unit, up to
// MaxDelay.
func (c *Controller) SpeedDown() {
	d := time.Duration(min(float64(c.delay)/speedFactor, float64(MaxDelay)))
	c.delay = min(MaxDelay, d.Truncate(delayUnit)+delayUnit)
	c.notify()
}

// SpeedReset restores the configured delay.
func (c *Controller) SpeedReset() {
	c.delay = c.initialDelay
	c.notify()
}

// FinishNow draws every remaining region without delay.
func (c *Controller) FinishNow() {
	if c.phase == Finished {
		return
	}
	for _, r := range c.regions[c.index:] {
		c.canvas.DrawPolygon(r.Color, r.Points)
	}
	c.index = len(c.regions)
	c.finish()
}

// ShuffleRestart reshuffles the regions, clears the canvas and starts over.
// It does nothing once the animation has finished.
func (c *Controller) ShuffleRestart() {
	if c.phase == Finished {
		return
	}
	if c.rng != nil {
		c.rng.Shuffle(len(c.regions), func(i, j int) {
			c.regions[i], c.regions[j] = c.regions[j], c.regions[i]
		})
	}
	c.canvas.Clear()
	c.Start()
}

// Handle applies a control.
func (c *Controller) Handle(ctl Control) {
	switch ctl {
	case ControlTogglePause:
		c.TogglePause()
	case ControlSpeedUp:
		c.SpeedUp()
	case ControlSpeedDown:
		c.SpeedDown()
	case ControlSpeedReset:
		c.SpeedReset()
	case ControlFinishNow:
		c.FinishNow()
	case ControlShuffleRestart:
		c.ShuffleRestart()
	default:
		c.logger.Warn("unknown control", "control", ctl)
	}
}

// Bind registers every trigger of keymap on the canvas. A trigger the canvas
// refuses stays inert; the refusal is logged and otherwise ignored.
func (c *Controller) Bind(keymap Keymap) {
	for _, trig := range keymap.Triggers() {
		ctl := keymap[trig]
		if err := c.canvas.OnInput(trig, func() { c.Handle(ctl) }); err != nil {
			c.logger.Debug("bind control", "trigger", trig, "control", ctl, "error", err)
		}
	}
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.State())
	}
}
