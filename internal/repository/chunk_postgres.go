package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiverai/quiver/internal/entity"
)

// ChunkPostgres persists chunks with their embeddings in PostgreSQL.
// Embeddings are stored as float4 arrays and the chunk table is the
// durable copy the in-memory index is rebuilt from at startup.
type ChunkPostgres struct {
	db *pgxpool.Pool
}

func NewChunkPostgres(db *pgxpool.Pool) *ChunkPostgres {
	return &ChunkPostgres{db: db}
}

// ReplaceForSource swaps all chunks of a source in one transaction, so
// re-ingesting a source never leaves a mix of old and new chunks.
func (r *ChunkPostgres) ReplaceForSource(ctx context.Context, sourceID string, chunks []entity.Chunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace chunks: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE source_id = $1`, sourceID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(`
			INSERT INTO chunks (id, source_id, seq, text, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			chunk.ID, chunk.SourceID, chunk.Seq, chunk.Text, chunk.Embedding,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close chunk batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace chunks: %w", err)
	}
	return nil
}

// ListAll returns every stored chunk joined with its source metadata,
// in source order then chunk order.
func (r *ChunkPostgres) ListAll(ctx context.Context) ([]entity.Chunk, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.source_id, s.name, s.type, c.seq, c.text, c.embedding
		FROM chunks c
		JOIN sources s ON s.id = c.source_id
		ORDER BY s.created_at, c.source_id, c.seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []entity.Chunk
	for rows.Next() {
		var chunk entity.Chunk
		err := rows.Scan(
			&chunk.ID, &chunk.SourceID, &chunk.SourceName, &chunk.SourceType,
			&chunk.Seq, &chunk.Text, &chunk.Embedding,
		)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	return chunks, nil
}

func (r *ChunkPostgres) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT source_id, COUNT(*)
		FROM chunks
		GROUP BY source_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sourceID string
		var count int
		if err := rows.Scan(&sourceID, &count); err != nil {
			return nil, fmt.Errorf("scan chunk count: %w", err)
		}
		counts[sourceID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	return counts, nil
}

func (r *ChunkPostgres) DeleteBySource(ctx context.Context, sourceID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE source_id = $1`, sourceID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (r *ChunkPostgres) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("delete all chunks: %w", err)
	}
	return nil
}
