package handlers

import (
	"context"

	"github.com/quiverai/quiver/internal/entity"
)

type ChatUsecase interface {
	Ask(ctx context.Context, conversationID, question string, emit func(entity.StreamChunk) error) (*entity.Conversation, error)
}

type KnowledgeUsecase interface {
	List(ctx context.Context) ([]*entity.Source, map[string]int, error)
}
