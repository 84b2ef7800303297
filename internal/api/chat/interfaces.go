package chat

import (
	"context"

	"github.com/quiverai/quiver/internal/entity"
)

type ChatUsecase interface {
	Ask(ctx context.Context, conversationID, question string, emit func(entity.StreamChunk) error) (*entity.Conversation, error)
	GetConversation(ctx context.Context, id string) (*entity.Conversation, []*entity.Message, error)
	ListConversations(ctx context.Context) ([]*entity.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	ExportTranscript(ctx context.Context, id string, format entity.ResultFormat) ([]byte, string, string, error)
}
