package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/regionpaint/internal/auth"
	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/store"
	"github.com/inamate/regionpaint/internal/typeid"
)

const maxDimension = 8192

// Defaults are the playback settings used when a create request leaves them
// out.
type Defaults struct {
	Pipeline engine.PipelineOptions
	Delay    time.Duration
	Seed     uint64
}

// Handler serves the session endpoints.
type Handler struct {
	hub      *Hub
	docs     store.Store
	auth     *auth.Service
	defaults Defaults
	origins  []string
}

func NewHandler(hub *Hub, docs store.Store, authSvc *auth.Service, defaults Defaults, origins []string) *Handler {
	return &Handler{hub: hub, docs: docs, auth: authSvc, defaults: defaults, origins: origins}
}

type createRequest struct {
	DocumentID string `json:"documentId"`
	DelayMs    int    `json:"delayMs"`
	Order      string `json:"order"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Seed       uint64 `json:"seed"`
}

// CreateResponse is returned from the create endpoint. The control token
// grants inputs; the view token only watches.
type CreateResponse struct {
	ID           string `json:"id"`
	DocumentID   string `json:"documentId"`
	Regions      int    `json:"regions"`
	ControlToken string `json:"controlToken"`
	ViewToken    string `json:"viewToken"`
}

type sessionInfo struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"documentId"`
	CreatedAt  time.Time    `json:"createdAt"`
	State      engine.State `json:"state"`
	Viewers    []Viewer     `json:"viewers"`
}

func info(s *Session) sessionInfo {
	return sessionInfo{
		ID:         s.ID,
		DocumentID: s.DocumentID,
		CreatedAt:  s.CreatedAt,
		State:      s.State(),
		Viewers:    s.Viewers(),
	}
}

// Create handles POST /sessions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DocumentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documentId is required"})
		return
	}
	if req.DelayMs < 0 || req.Width < 0 || req.Height < 0 || req.Width > maxDimension || req.Height > maxDimension {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delayMs, width and height must be in range"})
		return
	}

	doc, err := h.docs.Load(r.Context(), req.DocumentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
			return
		}
		slog.Error("load document", "error", err, "document", req.DocumentID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	pipe := h.defaults.Pipeline
	if req.Order != "" {
		order, err := geometry.ParseOrder(req.Order)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		pipe.Order = order
	}
	if req.Width > 0 {
		pipe.Width = req.Width
	}
	if req.Height > 0 {
		pipe.Height = req.Height
	}
	delay := h.defaults.Delay
	if req.DelayMs > 0 {
		delay = time.Duration(req.DelayMs) * time.Millisecond
	}
	seed := h.defaults.Seed
	if req.Seed != 0 {
		seed = req.Seed
	}

	resp, err := h.Start(doc, pipe, delay, seed)
	if err != nil {
		slog.Error("start session", "error", err, "document", doc.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Start prepares doc for the given canvas, starts a session on the hub and
// issues its tokens.
func (h *Handler) Start(doc *store.Document, pipe engine.PipelineOptions, delay time.Duration, seed uint64) (*CreateResponse, error) {
	rng := geometry.NewRand(seed)
	pipe.Rand = rng
	regions, _ := engine.Prepare(doc.Regions, nil, pipe)

	id := typeid.NewSessionID()
	control, err := h.auth.IssueToken(id, auth.RoleControl)
	if err != nil {
		return nil, err
	}
	view, err := h.auth.IssueToken(id, auth.RoleView)
	if err != nil {
		return nil, err
	}

	s := New(id, doc.ID, regions, Options{
		Width:  pipe.Width,
		Height: pipe.Height,
		Delay:  delay,
		Rand:   rng,
		Logger: h.hub.logger,
	})
	h.hub.Add(s)

	return &CreateResponse{
		ID:           id,
		DocumentID:   doc.ID,
		Regions:      len(regions),
		ControlToken: control,
		ViewToken:    view,
	}, nil
}

// List handles GET /sessions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.hub.List()
	out := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, info(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /sessions/{sessionId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.hub.Get(mux.Vars(r)["sessionId"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, info(s))
}

// Input handles POST /sessions/{sessionId}/input. It sits behind the auth
// middleware and needs a control token for the session.
func (h *Handler) Input(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	if !auth.ClaimsFromContext(r.Context()).Allows(id, auth.RoleControl) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "control token required"})
		return
	}
	s, err := h.hub.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	var in InputPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.Apply(in); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrClosed) {
			status = http.StatusGone
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

// Delete handles DELETE /sessions/{sessionId} with a control token.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	if !auth.ClaimsFromContext(r.Context()).Allows(id, auth.RoleControl) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "control token required"})
		return
	}
	if err := h.hub.Remove(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WebSocket handles GET /ws/session/{sessionId}?token=...
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if !claims.Allows(id, auth.RoleView) {
		http.Error(w, "token is for another session", http.StatusForbidden)
		return
	}

	s, err := h.hub.Get(id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, s, conn, clientID, claims.Role)

	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
