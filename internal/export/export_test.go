package export

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/region"
	"github.com/inamate/regionpaint/internal/store"
	"github.com/inamate/regionpaint/internal/typeid"
)

func redSquare() []region.Region {
	return []region.Region{{
		Color:   colorspec.Spec{255, 0, 0},
		Contour: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
	}}
}

func defaults() RenderOptions {
	return RenderOptions{
		Pipeline:   engine.PipelineOptions{Margin: 0.1, MinSegmentPx: 0.8, Width: 120, Height: 80},
		Background: "black",
	}
}

func TestRender(t *testing.T) {
	r, err := Render(redSquare(), defaults())
	require.NoError(t, err)
	defer r.Close()

	img := r.Image()
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
	red, _, _, _ := img.At(60, 40).RGBA()
	assert.Equal(t, uint32(0xffff), red)
	_, _, _, a := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	cr, _, _, _ := img.At(1, 1).RGBA()
	assert.Zero(t, cr)
}

func TestFramesPerBatch(t *testing.T) {
	dir := t.TempDir()
	regions := region.Sample()

	n, err := Frames(regions, defaults(), dir, 5)
	require.NoError(t, err)
	screen, _ := engine.Prepare(regions, nil, defaults().Pipeline)
	assert.Equal(t, (len(screen)+4)/5, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, n)
	assert.Equal(t, "frame_00000.png", entries[0].Name())
}

func newServer(t *testing.T) (*mux.Router, string) {
	t.Helper()
	docs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	doc := &store.Document{ID: typeid.NewDocumentID(), Name: "red square", CreatedAt: time.Now(), Regions: redSquare()}
	require.NoError(t, docs.Save(context.Background(), doc))

	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		ffmpeg = "ffmpeg"
	}
	h := NewHandler(docs, ffmpeg, defaults(), 0)
	r := mux.NewRouter()
	r.HandleFunc("/documents/{documentId}/render.png", h.RenderPNG).Methods("GET")
	r.HandleFunc("/documents/{documentId}/export", h.Export).Methods("POST")
	return r, doc.ID
}

func TestRenderPNGEndpoint(t *testing.T) {
	r, id := newServer(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/"+id+"/render.png?width=64&height=48&order=input&seed=3", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, color.RGBAModel.Convert(img.At(32, 24)))
}

func TestRenderPNGRejects(t *testing.T) {
	r, id := newServer(t)

	tests := map[string]struct {
		path   string
		status int
	}{
		"zero width":    {"/documents/" + id + "/render.png?width=0", http.StatusBadRequest},
		"huge height":   {"/documents/" + id + "/render.png?height=100000", http.StatusBadRequest},
		"unknown order": {"/documents/" + id + "/render.png?order=spiral", http.StatusBadRequest},
		"bad seed":      {"/documents/" + id + "/render.png?seed=-1", http.StatusBadRequest},
		"missing doc":   {"/documents/" + typeid.NewDocumentID() + "/render.png", http.StatusNotFound},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExportRejectsFormat(t *testing.T) {
	r, id := newServer(t)
	rec := postForm(r, "/documents/"+id+"/export", url.Values{"format": {"webm"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportGIF(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	r, id := newServer(t)

	rec := postForm(r, "/documents/"+id+"/export", url.Values{"format": {"gif"}, "fps": {"10"}, "batch": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="red-square.gif"`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("GIF8")))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "my-flower_2", sanitize("my flower_2"))
	assert.Equal(t, "------", sanitize("../../"))
	assert.Equal(t, "a-b", sanitize("a/b"))
}
