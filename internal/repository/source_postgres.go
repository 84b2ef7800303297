package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiverai/quiver/internal/entity"
)

// SourcePostgres persists knowledge sources in PostgreSQL
type SourcePostgres struct {
	db *pgxpool.Pool
}

func NewSourcePostgres(db *pgxpool.Pool) *SourcePostgres {
	return &SourcePostgres{db: db}
}

func (r *SourcePostgres) Upsert(ctx context.Context, source entity.Source) (*entity.Source, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO sources (id, name, type, content)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, type = EXCLUDED.type, content = EXCLUDED.content
		RETURNING id, name, type, content, created_at`,
		source.ID, source.Name, source.Type, source.Content,
	)

	saved, err := scanSource(row)
	if err != nil {
		return nil, fmt.Errorf("upsert source: %w", err)
	}
	return saved, nil
}

func (r *SourcePostgres) Get(ctx context.Context, id string) (*entity.Source, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, type, content, created_at
		FROM sources
		WHERE id = $1`,
		id,
	)

	source, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrSourceNotFound
		}
		return nil, fmt.Errorf("get source: %w", err)
	}
	return source, nil
}

func (r *SourcePostgres) List(ctx context.Context) ([]*entity.Source, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, type, content, created_at
		FROM sources
		ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []*entity.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	return sources, nil
}

func (r *SourcePostgres) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrSourceNotFound
	}
	return nil
}

func (r *SourcePostgres) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sources`); err != nil {
		return fmt.Errorf("delete all sources: %w", err)
	}
	return nil
}

func scanSource(row pgx.Row) (*entity.Source, error) {
	var source entity.Source
	err := row.Scan(&source.ID, &source.Name, &source.Type, &source.Content, &source.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &source, nil
}
