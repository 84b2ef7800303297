package source

import (
	"context"

	"github.com/quiverai/quiver/internal/entity"
)

type KnowledgeUsecase interface {
	AddFile(ctx context.Context, filename string, data []byte) (*entity.Source, error)
	AddURL(ctx context.Context, url string) (*entity.Source, error)
	Delete(ctx context.Context, sourceID string) error
	List(ctx context.Context) ([]*entity.Source, map[string]int, error)
	Rebuild(ctx context.Context) error
}
