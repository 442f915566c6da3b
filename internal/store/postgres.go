package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/regionpaint/internal/region"
)

const schema = `
CREATE TABLE IF NOT EXISTS region_documents (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	regions     JSONB NOT NULL,
	region_count INTEGER NOT NULL,
	point_count  INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps documents in a region_documents table. The geometry is
// stored as the same JSON document the loader reads.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the table if needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, doc *Document) error {
	regions, err := region.Encode(doc.Regions)
	if err != nil {
		return fmt.Errorf("encode regions: %w", err)
	}
	sum := doc.Summary()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO region_documents (id, name, regions, region_count, point_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			regions = EXCLUDED.regions,
			region_count = EXCLUDED.region_count,
			point_count = EXCLUDED.point_count`,
		doc.ID, doc.Name, regions, sum.Regions, sum.Points, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*Document, error) {
	doc := Document{ID: id}
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT name, regions, created_at FROM region_documents WHERE id = $1`, id,
	).Scan(&doc.Name, &raw, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load document: %w", err)
	}

	doc.Regions, err = region.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &doc, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at, region_count, point_count
		FROM region_documents
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.Regions, &s.Points); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM region_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
