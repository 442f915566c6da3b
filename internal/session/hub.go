package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/inamate/regionpaint/internal/auth"
)

// Hub owns the running sessions and serialises client joins and leaves.
type Hub struct {
	ctx        context.Context
	mu         sync.RWMutex
	sessions   map[string]*Session // sessionID -> session
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

// NewHub creates a hub whose sessions live until ctx is done.
func NewHub(ctx context.Context, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		ctx:        ctx,
		sessions:   make(map[string]*Session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes joins and leaves until the hub's context is done, then
// closes every session.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			client.session.leave(client)
		case <-h.ctx.Done():
			h.Stop()
			return
		}
	}
}

// Register queues c to join its session. It reports false once the hub has
// stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Add starts s and makes it reachable by id.
func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	s.Start(h.ctx)
	h.logger.Info("session started", "session", s.ID, "document", s.DocumentID)
}

func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns the sessions ordered by id.
func (h *Hub) List() []*Session {
	h.mu.RLock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Session) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Remove closes the session and forgets it.
func (h *Hub) Remove(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	h.logger.Info("session closed", "session", id)
	return nil
}

// Stop closes every session.
func (h *Hub) Stop() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (h *Hub) addClient(c *Client) {
	if err := c.session.join(c); err != nil {
		h.logger.Debug("join refused", "client", c.ClientID, "session", c.session.ID, "error", err)
		c.Send(errorMessage(err.Error()))
		c.closeSend()
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeInput:
		h.handleInput(sender, msg)
	default:
		h.logger.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.Send(errorMessage("unknown message type " + msg.Type))
	}
}

func (h *Hub) handleInput(sender *Client, msg *Message) {
	if sender.Role != auth.RoleControl {
		sender.Send(errorMessage(ErrViewOnly.Error()))
		return
	}

	var in InputPayload
	if err := json.Unmarshal(msg.Payload, &in); err != nil {
		h.logger.Warn("invalid input payload", "error", err)
		sender.Send(errorMessage("invalid input payload"))
		return
	}

	if err := sender.session.Apply(in); err != nil {
		if !errors.Is(err, ErrClosed) {
			h.logger.Debug("input rejected", "client", sender.ClientID, "error", err)
		}
		sender.Send(errorMessage(err.Error()))
	}
}
