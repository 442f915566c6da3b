package session

import (
	"encoding/json"

	"github.com/inamate/regionpaint/internal/auth"
	"github.com/inamate/regionpaint/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Server to client
	TypeWelcome     = "welcome"
	TypeDraw        = "draw"
	TypeClear       = "clear"
	TypeStatus      = "status"
	TypeState       = "state"
	TypeError       = "error"
	TypeViewerJoin  = "viewer.join"
	TypeViewerLeave = "viewer.leave"

	// Client to server
	TypeInput = "input"
)

// WelcomePayload is the first message a client receives. Replay holds every
// polygon drawn since the last clear, so a late joiner can catch up.
type WelcomePayload struct {
	ClientID  string               `json:"clientId"`
	Role      auth.Role            `json:"role"`
	Width     int                  `json:"width"`
	Height    int                  `json:"height"`
	Transform []float64            `json:"transform"`
	State     engine.State         `json:"state"`
	Status    string               `json:"status"`
	Replay    []engine.DrawCommand `json:"replay"`
	Viewers   []Viewer             `json:"viewers"`
}

type StatusPayload struct {
	Text string `json:"text"`
}

// InputPayload carries either a trigger name ("space", "plus", ...) or a
// control name ("pause", "faster", ...).
type InputPayload struct {
	Trigger string `json:"trigger,omitempty"`
	Control string `json:"control,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type Viewer struct {
	ClientID string    `json:"clientId"`
	Role     auth.Role `json:"role"`
}

func newMessage(typ string, payload any) (*Message, error) {
	msg := &Message{Type: typ}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg.Payload = data
	return msg, nil
}

func errorMessage(text string) *Message {
	data, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: data}
}
