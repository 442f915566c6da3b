package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/regionpaint/internal/colorspec"
	"github.com/inamate/regionpaint/internal/geometry"
	"github.com/inamate/regionpaint/internal/region"
	"github.com/inamate/regionpaint/internal/typeid"
)

func triangle(c colorspec.Spec) region.Region {
	return region.Region{
		Color:   c,
		Contour: []geometry.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 3}},
	}
}

func newDoc(name string, at time.Time) *Document {
	return &Document{
		ID:        typeid.NewDocumentID(),
		Name:      name,
		CreatedAt: at,
		Regions: []region.Region{
			triangle(colorspec.Spec{255, 0, 0}),
			triangle(nil),
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "docs"))
	require.NoError(t, err)
	defer s.Close()

	doc := newDoc("flower", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "flower", got.Name)
	assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Regions, 2)
	assert.Equal(t, colorspec.Spec{255, 0, 0}, got.Regions[0].Color)
	assert.Nil(t, got.Regions[1].Color)
	assert.Equal(t, doc.Regions[0].Contour, got.Regions[0].Contour)
}

func TestFileStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(ctx, typeid.NewDocumentID())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Load(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, typeid.NewDocumentID()), ErrNotFound)
}

func TestFileStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	older := newDoc("older", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := newDoc("newer", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "older", list[1].Name)
	assert.Equal(t, 2, list[0].Regions)
	assert.Equal(t, 6, list[0].Points)

	require.NoError(t, s.Delete(ctx, newer.ID))
	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, older.ID, list[0].ID)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	url := os.Getenv("REGIONPAINT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("REGIONPAINT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)
	defer s.Close()

	doc := newDoc("pg", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, s.Save(ctx, doc))
	defer s.Delete(ctx, doc.ID)

	got, err := s.Load(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "pg", got.Name)
	assert.Len(t, got.Regions, 2)

	require.NoError(t, s.Delete(ctx, doc.ID))
	_, err = s.Load(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
