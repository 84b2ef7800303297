package source

import "github.com/quiverai/quiver/internal/entity"

func toSourceDTO(source *entity.Source, chunkCount int) entity.SourceDTO {
	return entity.SourceDTO{
		ID:        source.ID,
		Name:      source.Name,
		Type:      string(source.Type),
		Chunks:    chunkCount,
		CreatedAt: source.CreatedAt,
	}
}
