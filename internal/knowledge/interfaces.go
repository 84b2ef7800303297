package knowledge

import (
	"context"

	"github.com/quiverai/quiver/internal/entity"
)

// EmbedConnector produces embedding vectors for chunk and query text
type EmbedConnector interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SourceRepository persists knowledge sources
type SourceRepository interface {
	Upsert(ctx context.Context, source entity.Source) (*entity.Source, error)
	Get(ctx context.Context, id string) (*entity.Source, error)
	List(ctx context.Context) ([]*entity.Source, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// ChunkRepository persists chunks and their embeddings
type ChunkRepository interface {
	ReplaceForSource(ctx context.Context, sourceID string, chunks []entity.Chunk) error
	ListAll(ctx context.Context) ([]entity.Chunk, error)
	CountBySource(ctx context.Context) (map[string]int, error)
	DeleteBySource(ctx context.Context, sourceID string) error
	DeleteAll(ctx context.Context) error
}

// VectorIndex is the in-memory search index kept in sync with the store
type VectorIndex interface {
	Add(chunks []entity.Chunk)
	RemoveSource(sourceID string) int
	Reset()
	Len() int
	Search(query []float32, k int) []entity.ScoredChunk
}
