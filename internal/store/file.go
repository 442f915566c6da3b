package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/inamate/regionpaint/internal/region"
	"github.com/inamate/regionpaint/internal/typeid"
)

const docExt = ".json"

// FileStore keeps one JSON file per document in a directory. Each file is a
// region document wrapped with its metadata, so it can be fed straight to
// region.Parse.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

type fileDocument struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	Regions   json.RawMessage `json:"regions"`
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) (string, error) {
	if err := typeid.Validate(id, typeid.PrefixDocument); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return filepath.Join(s.dir, id+docExt), nil
}

func (s *FileStore) Save(_ context.Context, doc *Document) error {
	path, err := s.path(doc.ID)
	if err != nil {
		return err
	}
	regions, err := region.Encode(doc.Regions)
	if err != nil {
		return fmt.Errorf("encode regions: %w", err)
	}
	data, err := json.Marshal(fileDocument{
		ID:        doc.ID,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		Regions:   regions,
	})
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, id string) (*Document, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return decodeFile(data)
}

func decodeFile(data []byte) (*Document, error) {
	var fd fileDocument
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	regions, err := region.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", fd.ID, err)
	}
	return &Document{ID: fd.ID, Name: fd.Name, CreatedAt: fd.CreatedAt, Regions: regions}, nil
}

// List returns every readable document, newest first. Unreadable files are
// skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, docExt) {
			continue
		}
		doc, err := s.Load(ctx, strings.TrimSuffix(name, docExt))
		if err != nil {
			continue
		}
		out = append(out, doc.Summary())
	}
	slices.SortStableFunc(out, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *FileStore) Close() {}
