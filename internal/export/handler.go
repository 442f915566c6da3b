package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/regionpaint/internal/engine"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/store"
	"github.com/inamate/regionpaint/internal/typeid"
)

const (
	maxDimension = 4096
	defaultFPS   = 24
	framePattern = "frame_%05d.png"
)

var ErrBadOption = errors.New("bad option")

type Handler struct {
	docs       store.Store
	ffmpegPath string
	defaults   RenderOptions
	batch      int
}

// NewHandler serves renders of documents in docs. batch is the default
// number of regions per exported frame.
func NewHandler(docs store.Store, ffmpegPath string, defaults RenderOptions, batch int) *Handler {
	if batch <= 0 {
		batch = engine.DefaultUpdateEvery
	}
	return &Handler{docs: docs, ffmpegPath: ffmpegPath, defaults: defaults, batch: batch}
}

// options applies width, height, order and seed overrides from q.
func (h *Handler) options(q url.Values) (RenderOptions, error) {
	opts := h.defaults
	for key, dst := range map[string]*int{"width": &opts.Pipeline.Width, "height": &opts.Pipeline.Height} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxDimension {
			return opts, fmt.Errorf("%w: %s must be 1-%d", ErrBadOption, key, maxDimension)
		}
		*dst = n
	}
	if v := q.Get("order"); v != "" {
		order, err := geometry.ParseOrder(v)
		if err != nil {
			return opts, fmt.Errorf("%w: %w", ErrBadOption, err)
		}
		opts.Pipeline.Order = order
	}
	var seed uint64
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: seed must be an unsigned integer", ErrBadOption)
		}
		seed = n
	}
	opts.Pipeline.Rand = geometry.NewRand(seed)
	return opts, nil
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*store.Document, bool) {
	id := mux.Vars(r)["documentId"]
	doc, err := h.docs.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
			return nil, false
		}
		slog.Error("load document", "error", err, "document", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return nil, false
	}
	return doc, true
}

// RenderPNG handles GET /documents/{documentId}/render.png.
func (h *Handler) RenderPNG(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	doc, ok := h.load(w, r)
	if !ok {
		return
	}

	raster, err := Render(doc.Regions, opts)
	if err != nil {
		slog.Error("render document", "error", err, "document", doc.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	defer raster.Close()

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf); err != nil {
		slog.Error("encode png", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// Export handles POST /documents/{documentId}/export. Form values: format
// (gif or mp4), fps, batch, name, plus the render overrides.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}

	format := r.FormValue("format")
	if format != "mp4" && format != "gif" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid format: must be mp4 or gif"})
		return
	}

	fps, err := strconv.Atoi(r.FormValue("fps"))
	if err != nil || fps <= 0 || fps > 120 {
		fps = defaultFPS
	}
	batch, err := strconv.Atoi(r.FormValue("batch"))
	if err != nil || batch <= 0 {
		batch = h.batch
	}

	opts, err := h.options(r.Form)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	doc, ok := h.load(w, r)
	if !ok {
		return
	}

	name := sanitize(r.FormValue("name"))
	if name == "" {
		name = sanitize(doc.Name)
	}
	if name == "" {
		name = "regions"
	}

	exportID := typeid.NewExportID()
	tempDir, err := os.MkdirTemp("", "regionpaint-export-*")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	defer os.RemoveAll(tempDir)

	frames, err := Frames(doc.Regions, opts, tempDir, batch)
	if err != nil {
		slog.Error("render frames", "error", err, "export", exportID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}

	slog.Info("export started", "export", exportID, "document", doc.ID, "format", format, "frames", frames, "fps", fps)

	outputFile, contentType, err := h.encode(r.Context(), tempDir, format, fps)
	if err != nil {
		slog.Error("ffmpeg failed", "error", err, "export", exportID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("encoding failed: %v", err)})
		return
	}

	outFile, err := os.Open(outputFile)
	if err != nil {
		slog.Error("open output file", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	defer outFile.Close()

	stat, err := outFile.Stat()
	if err != nil {
		slog.Error("stat output file", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, outFile)

	slog.Info("export complete", "export", exportID, "format", format, "size", stat.Size())
}

func (h *Handler) encode(ctx context.Context, dir, format string, fps int) (string, string, error) {
	input := filepath.Join(dir, framePattern)
	rate := strconv.Itoa(fps)

	switch format {
	case "mp4":
		out := filepath.Join(dir, "output.mp4")
		// yuv420p needs even dimensions.
		return out, "video/mp4", h.runFfmpeg(ctx,
			"-framerate", rate,
			"-i", input,
			"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
			out,
		)
	default:
		out := filepath.Join(dir, "output.gif")
		palette := filepath.Join(dir, "palette.png")
		err := h.runFfmpeg(ctx,
			"-framerate", rate,
			"-i", input,
			"-vf", "palettegen=stats_mode=diff",
			palette,
		)
		if err == nil {
			err = h.runFfmpeg(ctx,
				"-framerate", rate,
				"-i", input,
				"-i", palette,
				"-lavfi", "paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
				out,
			)
		}
		return out, "image/gif", err
	}
}

func (h *Handler) runFfmpeg(ctx context.Context, args ...string) error {
	// -y overwrites output without prompting
	fullArgs := append([]string{"-y"}, args...)
	cmd := exec.CommandContext(ctx, h.ffmpegPath, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, stderr.String())
	}
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
