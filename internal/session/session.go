// Package session streams playback sessions to websocket clients. Each
// session owns one controller driven by its own event loop; every draw call
// is recorded, broadcast to the connected clients and kept for late joiners.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/projection"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrClosed         = errors.New("session closed")
	ErrUnknownTrigger = errors.New("unknown trigger")
	ErrUnknownControl = errors.New("unknown control")
	ErrViewOnly       = errors.New("view-only client")
)

const loopBuffer = 64

type Options struct {
	Width  int
	Height int
	Delay  time.Duration
	Rand   geometry.Shuffler
	Keymap engine.Keymap
	Logger *slog.Logger
}

type Session struct {
	ID         string
	DocumentID string
	CreatedAt  time.Time

	width    int
	height   int
	keymap   engine.Keymap
	loop     *engine.Loop
	recorder *engine.Recorder
	ctrl     *engine.Controller
	viewers  *ViewerList
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[string]*Client // clientID -> client
	replay  []engine.DrawCommand
	status  string
	state   engine.State
	seq     int64
	closed  bool
}

// New creates a session over regions already prepared for a width x height
// canvas. Nothing is drawn until Start.
func New(id, documentID string, regions []engine.ScreenRegion, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)
	keymap := opts.Keymap
	if keymap == nil {
		keymap = engine.DefaultKeymap()
	}

	s := &Session{
		ID:         id,
		DocumentID: documentID,
		CreatedAt:  time.Now(),
		width:      opts.Width,
		height:     opts.Height,
		keymap:     keymap,
		loop:       engine.NewLoop(loopBuffer),
		viewers:    NewViewerList(),
		logger:     logger,
		clients:    make(map[string]*Client),
	}
	s.recorder = engine.NewRecorder(opts.Width, opts.Height, s.record)
	s.ctrl = engine.NewController(regions, s.recorder, s.loop, engine.Options{
		Delay:    opts.Delay,
		Rand:     opts.Rand,
		Logger:   logger,
		OnChange: s.changed,
	})
	s.state = s.ctrl.State()
	return s
}

// Start runs the session's loop until ctx is done or Close is called, and
// begins playback.
func (s *Session) Start(ctx context.Context) {
	go s.loop.Run(ctx)
	s.loop.Post(func() {
		s.ctrl.Bind(s.keymap)
		s.ctrl.Start()
	})
}

// Close stops playback and disconnects every client.
func (s *Session) Close() {
	s.loop.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, c := range s.clients {
		delete(s.clients, id)
		s.viewers.Remove(id)
		c.closeSend()
	}
}

// Done is closed once the session's loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.loop.Done()
}

func (s *Session) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Viewers() []Viewer {
	return s.viewers.GetAll()
}

// Input dispatches a trigger on the session's loop and waits for it.
func (s *Session) Input(trigger engine.Trigger) error {
	var bound bool
	if !s.loop.Do(func() { bound = s.recorder.Dispatch(trigger) }) {
		return ErrClosed
	}
	if !bound {
		return ErrUnknownTrigger
	}
	return nil
}

// Control applies ctl on the session's loop and waits for it.
func (s *Session) Control(ctl engine.Control) error {
	if !s.loop.Do(func() { s.ctrl.Handle(ctl) }) {
		return ErrClosed
	}
	return nil
}

// Apply handles an input payload from a client.
func (s *Session) Apply(in InputPayload) error {
	if in.Control != "" {
		ctl, ok := engine.ParseControl(in.Control)
		if !ok {
			return ErrUnknownControl
		}
		return s.Control(ctl)
	}
	return s.Input(engine.Trigger(in.Trigger))
}

// record runs on the loop goroutine for every recorder call.
func (s *Session) record(cmd engine.DrawCommand) {
	var msg *Message
	var err error

	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Op {
	case engine.OpPolygon:
		s.replay = append(s.replay, cmd)
		msg, err = newMessage(TypeDraw, cmd)
	case engine.OpClear:
		s.replay = s.replay[:0]
		msg, err = newMessage(TypeClear, nil)
	case engine.OpStatus:
		s.status = cmd.Text
		msg, err = newMessage(TypeStatus, StatusPayload{Text: cmd.Text})
	default:
		return
	}
	if err != nil {
		s.logger.Error("marshal draw command", "error", err)
		return
	}
	s.broadcastLocked(msg, "")
}

func (s *Session) changed(st engine.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = st
	msg, err := newMessage(TypeState, st)
	if err != nil {
		s.logger.Error("marshal state", "error", err)
		return
	}
	s.broadcastLocked(msg, "")
}

// join adds c and sends it the welcome. It fails once the session is
// closed.
func (s *Session) join(c *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	joined, err := newMessage(TypeViewerJoin, Viewer{ClientID: c.ClientID, Role: c.Role})
	if err == nil {
		s.broadcastLocked(joined, "")
	}

	s.clients[c.ClientID] = c
	s.viewers.Update(Viewer{ClientID: c.ClientID, Role: c.Role})

	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		ClientID:  c.ClientID,
		Role:      c.Role,
		Width:     s.width,
		Height:    s.height,
		Transform: projection.Viewport(s.width, s.height).Slice(),
		State:     s.state,
		Status:    s.status,
		Replay:    s.replay,
		Viewers:   s.viewers.GetAll(),
	})
	if err != nil {
		delete(s.clients, c.ClientID)
		s.viewers.Remove(c.ClientID)
		return err
	}
	welcome.SessionID = s.ID
	welcome.Seq = s.seq
	c.Send(welcome)

	s.logger.Info("client joined", "client", c.ClientID, "role", c.Role)
	return nil
}

func (s *Session) leave(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c.ClientID]; !ok {
		return
	}
	delete(s.clients, c.ClientID)
	s.viewers.Remove(c.ClientID)
	c.closeSend()

	left, err := newMessage(TypeViewerLeave, Viewer{ClientID: c.ClientID, Role: c.Role})
	if err == nil {
		s.broadcastLocked(left, "")
	}

	s.logger.Info("client left", "client", c.ClientID)
}

func (s *Session) broadcastLocked(msg *Message, excludeClientID string) {
	s.seq++
	msg.SessionID = s.ID
	msg.Seq = s.seq

	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal message", "error", err)
		return
	}
	for id, c := range s.clients {
		if id != excludeClientID {
			c.sendRaw(data)
		}
	}
}
