package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/regionpaint/internal/auth"
	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/region"
	"github.com/inamate/regionpaint/internal/store"
	"github.com/inamate/regionpaint/internal/typeid"
)

type fixture struct {
	srv   *httptest.Server
	hub   *Hub
	docID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	doc := &store.Document{ID: typeid.NewDocumentID(), Name: "sample", CreatedAt: time.Now(), Regions: region.Sample()}
	require.NoError(t, docs.Save(context.Background(), doc))

	authSvc := auth.NewService("test-secret")
	h := newHub(t)
	handler := NewHandler(h, docs, authSvc, Defaults{
		Pipeline: engine.PipelineOptions{Margin: 0.1, MinSegmentPx: 0.8, Width: 400, Height: 300},
		Delay:    time.Hour,
		Seed:     7,
	}, nil)

	r := mux.NewRouter()
	r.HandleFunc("/sessions", handler.Create).Methods("POST")
	r.HandleFunc("/sessions", handler.List).Methods("GET")
	r.HandleFunc("/sessions/{sessionId}", handler.Get).Methods("GET")
	r.HandleFunc("/ws/session/{sessionId}", handler.WebSocket)
	r.Handle("/sessions/{sessionId}/input", authSvc.AuthMiddleware(http.HandlerFunc(handler.Input))).Methods("POST")
	r.Handle("/sessions/{sessionId}", authSvc.AuthMiddleware(http.HandlerFunc(handler.Delete))).Methods("DELETE")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, hub: h, docID: doc.ID}
}

func (f *fixture) create(t *testing.T, body string) (*http.Response, CreateResponse) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+"/sessions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out CreateResponse
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (f *fixture) input(t *testing.T, id, token, body string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/sessions/"+id+"/input", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.create(t, `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.create(t, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.create(t, `{"documentId":"`+typeid.NewDocumentID()+`"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.create(t, `{"documentId":"`+f.docID+`","order":"spiral"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionOverWebSocket(t *testing.T) {
	f := newFixture(t)

	resp, created := f.create(t, `{"documentId":"`+f.docID+`","order":"input"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, f.docID, created.DocumentID)
	assert.Positive(t, created.Regions)
	assert.LessOrEqual(t, created.Regions, len(region.Sample()))
	assert.NoError(t, typeid.Validate(created.ID, typeid.PrefixSession))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/session/" + created.ID + "?token=" + created.ViewToken
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, TypeWelcome, msg.Type)

	var welcome WelcomePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &welcome))
	assert.Equal(t, auth.RoleView, welcome.Role)
	assert.Equal(t, 400, welcome.Width)
	assert.Equal(t, 300, welcome.Height)

	// A view token cannot steer the session.
	assert.Equal(t, http.StatusForbidden, f.input(t, created.ID, created.ViewToken, `{"control":"finish"}`))
	assert.Equal(t, http.StatusBadRequest, f.input(t, created.ID, created.ControlToken, `{"control":"rewind"}`))
	assert.Equal(t, http.StatusOK, f.input(t, created.ID, created.ControlToken, `{"control":"finish"}`))

	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type != TypeState {
			continue
		}
		var st engine.State
		require.NoError(t, json.Unmarshal(msg.Payload, &st))
		if st.Phase == engine.Finished {
			assert.Equal(t, created.Regions, st.Index)
			break
		}
	}

	resp, err = http.Get(f.srv.URL + "/sessions/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got sessionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, engine.Finished, got.State.Phase)
	assert.Len(t, got.Viewers, 1)
}

func TestWebSocketRejectsForeignToken(t *testing.T) {
	f := newFixture(t)

	_, a := f.create(t, `{"documentId":"`+f.docID+`"}`)
	_, b := f.create(t, `{"documentId":"`+f.docID+`"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	base := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/session/"
	_, resp, err := websocket.Dial(ctx, base+a.ID+"?token="+b.ViewToken, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.Dial(ctx, base+a.ID, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	_, created := f.create(t, `{"documentId":"`+f.docID+`"}`)

	del := func(token string) int {
		req, err := http.NewRequest(http.MethodDelete, f.srv.URL+"/sessions/"+created.ID, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, del(created.ViewToken))
	assert.Equal(t, http.StatusNoContent, del(created.ControlToken))
	assert.Equal(t, http.StatusNotFound, del(created.ControlToken))

	_, err := f.hub.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
