package canvas

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/inamate/regionpaint/internal/engine"
)

// ErrQuit is returned by ReadControls when the user asks to quit.
var ErrQuit = errors.New("quit requested")

const (
	progressColor = "#5fafff"
	doneColor     = "#5fd75f"
)

// Terminal wraps a canvas with a status line on a terminal and keyboard
// triggers read from a line-oriented input.
type Terminal struct {
	engine.Canvas
	out      *termenv.Output
	handlers map[engine.Trigger]func()
}

func NewTerminal(inner engine.Canvas, w io.Writer, opts ...termenv.OutputOption) *Terminal {
	return &Terminal{
		Canvas:   inner,
		out:      termenv.NewOutput(w, opts...),
		handlers: make(map[engine.Trigger]func()),
	}
}

// SetStatus forwards the status and redraws the status line in place.
func (t *Terminal) SetStatus(text string) {
	t.Canvas.SetStatus(text)

	style := t.out.String(text).Foreground(t.out.Color(progressColor))
	if text == engine.StatusDone {
		style = t.out.String(text).Foreground(t.out.Color(doneColor)).Bold()
	}
	t.out.ClearLine()
	io.WriteString(t.out, "\r"+style.String())
	if text == engine.StatusDone {
		io.WriteString(t.out, "\n")
	}
}

func (t *Terminal) OnInput(trigger engine.Trigger, handler func()) error {
	t.handlers[trigger] = handler
	return nil
}

// Dispatch runs the handler bound to trigger and reports whether there was
// one.
func (t *Terminal) Dispatch(trigger engine.Trigger) bool {
	h, ok := t.handlers[trigger]
	if ok {
		h()
	}
	return ok
}

// Triggers maps one line of input to triggers. An empty line is a space.
// Unknown characters are ignored. quit is true when the line holds a q.
func Triggers(line string) (triggers []engine.Trigger, quit bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return []engine.Trigger{"space"}, false
	}
	for _, r := range line {
		switch r {
		case ' ':
			triggers = append(triggers, "space")
		case '+':
			triggers = append(triggers, "plus")
		case '=':
			triggers = append(triggers, "equal")
		case '-', '_':
			triggers = append(triggers, "minus")
		case '0':
			triggers = append(triggers, "0")
		case 'f', 'F':
			triggers = append(triggers, "f")
		case 'r', 'R':
			triggers = append(triggers, "r")
		case 'q', 'Q':
			return triggers, true
		}
	}
	return triggers, false
}

// ReadControls reads lines from in until it ends, ctx is done or the user
// quits. Each trigger is handed to post, which must run it on the goroutine
// that owns the controller. It returns ErrQuit on quit and nil at end of
// input.
func (t *Terminal) ReadControls(ctx context.Context, in io.Reader, post func(func()) bool) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		triggers, quit := Triggers(scanner.Text())
		for _, trig := range triggers {
			if !post(func() { t.Dispatch(trig) }) {
				return nil
			}
		}
		if quit {
			return ErrQuit
		}
	}
	return scanner.Err()
}
