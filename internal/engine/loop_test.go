package engine

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsEventsInOrder(t *testing.T) {
	l := NewLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var got []int
	for i := range 5 {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.True(t, l.Do(func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoopAfter(t *testing.T) {
	l := NewLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	fired := make(chan struct{})
	l.After(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer event never ran")
	}
}

func TestLoopStop(t *testing.T) {
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()

	<-l.Done()
	assert.False(t, l.Post(func() {}))
	assert.False(t, l.Do(func() {}))
	l.Stop()
}

type lockedCanvas struct {
	mu    sync.Mutex
	draws int
}

func (c *lockedCanvas) Size() (int, int, bool) { return 100, 100, true }
func (c *lockedCanvas) DrawPolygon(string, []image.Point) {
	c.mu.Lock()
	c.draws++
	c.mu.Unlock()
}
func (c *lockedCanvas) SetStatus(string)              {}
func (c *lockedCanvas) OnInput(Trigger, func()) error { return ErrInputUnsupported }
func (c *lockedCanvas) Clear()                        {}
func (c *lockedCanvas) Flush()                        {}

func TestControllerOnLoop(t *testing.T) {
	l := NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	canvas := &lockedCanvas{}
	finished := make(chan State, 1)
	c := NewController(regions(5), canvas, l, Options{
		Delay: time.Millisecond,
		OnChange: func(s State) {
			if s.Phase == Finished {
				finished <- s
			}
		},
	})
	c.Bind(DefaultKeymap())
	l.Post(c.Start)

	select {
	case s := <-finished:
		assert.Equal(t, 5, s.Index)
	case <-time.After(5 * time.Second):
		t.Fatal("animation did not finish")
	}
	canvas.mu.Lock()
	defer canvas.mu.Unlock()
	assert.Equal(t, 5, canvas.draws)
}

func TestRecorder(t *testing.T) {
	var cmds []DrawCommand
	rec := NewRecorder(200, 100, func(c DrawCommand) { cmds = append(cmds, c) })

	w, h, ok := rec.Size()
	assert.True(t, ok)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)

	rec.DrawPolygon("#ff0000", []image.Point{{-1, -2}, {3, 4}, {5, -6}})
	rec.SetStatus("1/1")
	rec.Clear()
	rec.Flush()

	require.Len(t, cmds, 4)
	assert.Equal(t, DrawCommand{Op: OpPolygon, Fill: "#ff0000", Points: []int{-1, -2, 3, 4, 5, -6}}, cmds[0])
	assert.Equal(t, []image.Point{{-1, -2}, {3, 4}, {5, -6}}, cmds[0].PolygonPoints())
	assert.Equal(t, OpStatus, cmds[1].Op)
	assert.Equal(t, OpClear, cmds[2].Op)
	assert.Equal(t, OpFlush, cmds[3].Op)

	pressed := false
	require.NoError(t, rec.OnInput("space", func() { pressed = true }))
	assert.True(t, rec.Dispatch("space"))
	assert.True(t, pressed)
	assert.False(t, rec.Dispatch("q"))

	js, err := DrawCommandsToJSON(cmds[:2])
	require.NoError(t, err)
	assert.JSONEq(t, `[{"op":"polygon","fill":"#ff0000","points":[-1,-2,3,4,5,-6]},{"op":"status","text":"1/1"}]`, js)
}
