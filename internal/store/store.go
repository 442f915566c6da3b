// Package store persists region documents.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/inamate/regionpaint/internal/region"
)

var ErrNotFound = errors.New("document not found")

// Document is a stored region document.
type Document struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	Regions   []region.Region `json:"regions"`
}

// Summary describes a document without its geometry.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Regions   int       `json:"regions"`
	Points    int       `json:"points"`
}

func (d *Document) Summary() Summary {
	points := 0
	for _, n := range region.Counts(d.Regions) {
		points += n
	}
	return Summary{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		Regions:   len(d.Regions),
		Points:    points,
	}
}

type Store interface {
	Save(ctx context.Context, doc *Document) error
	Load(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close()
}
