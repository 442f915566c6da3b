// Package document serves the region document endpoints: upload, listing,
// retrieval and point statistics.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/regionpaint/internal/region"
	"github.com/inamate/regionpaint/internal/store"
	"github.com/inamate/regionpaint/internal/typeid"
)

const maxUploadSize = 32 << 20 // 32MB

type Handler struct {
	docs store.Store
}

func NewHandler(docs store.Store) *Handler {
	return &Handler{docs: docs}
}

// Create stores regions as a new document.
func Create(ctx context.Context, docs store.Store, name string, regions []region.Region) (*store.Document, error) {
	doc := &store.Document{
		ID:        typeid.NewDocumentID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Regions:   regions,
	}
	if err := docs.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Upload handles POST /documents. The body is either the raw JSON document
// or a multipart form with a "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	name := r.URL.Query().Get("name")
	var data []byte
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 32MB)"})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
			return
		}
		defer file.Close()

		if name == "" {
			name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
		}
		if data, err = io.ReadAll(file); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read file failed"})
			return
		}
	} else {
		var err error
		if data, err = io.ReadAll(r.Body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document too large (max 32MB)"})
			return
		}
	}

	regions, err := region.Parse(data)
	if err != nil {
		if errors.Is(err, region.ErrNoValidPolygons) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document: " + err.Error()})
		return
	}

	doc, err := Create(r.Context(), h.docs, name, regions)
	if err != nil {
		slog.Error("save document", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("document uploaded", "document", doc.ID, "regions", len(doc.Regions))
	writeJSON(w, http.StatusCreated, doc.Summary())
}

// List handles GET /documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.List(r.Context())
	if err != nil {
		slog.Error("list documents", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if docs == nil {
		docs = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// Get handles GET /documents/{documentId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Stats handles GET /documents/{documentId}/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, region.ComputeStats(region.Counts(doc.Regions)))
}

// Delete handles DELETE /documents/{documentId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.docs.Delete(r.Context(), mux.Vars(r)["documentId"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
			return
		}
		slog.Error("delete document", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
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

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
