package chat

import (
	"context"

	"github.com/quiverai/quiver/internal/entity"
)

// LLMConnector generates answers from the language model
type LLMConnector interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	GenerateStream(ctx context.Context, system, prompt string, onToken func(string) error) error
}

// EmbedConnector embeds the user question for retrieval
type EmbedConnector interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever searches the vector index
type Retriever interface {
	Search(query []float32, k int) []entity.ScoredChunk
}

// ConversationRepository persists chat threads
type ConversationRepository interface {
	Create(ctx context.Context, conv entity.Conversation) (*entity.Conversation, error)
	Get(ctx context.Context, id string) (*entity.Conversation, error)
	List(ctx context.Context) ([]*entity.Conversation, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepository persists conversation messages
type MessageRepository interface {
	Create(ctx context.Context, msg entity.Message) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)
}
