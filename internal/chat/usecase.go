package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/entity"
	"github.com/quiverai/quiver/internal/pkg/formatter"
)

const maxTitleLength = 60

// Usecase implements cache-augmented generation: retrieval results
// and final answers are cached, and misses stream from the model with
// think-marker separation.
type Usecase struct {
	convRepo       ConversationRepository
	msgRepo        MessageRepository
	retriever      Retriever
	embedder       EmbedConnector
	llm            LLMConnector
	retrievalCache *gocache.Cache
	answerCache    *gocache.Cache
	formatters     *formatter.Factory
	topK           int
	logger         *zap.Logger
}

func NewUsecase(
	convRepo ConversationRepository,
	msgRepo MessageRepository,
	retriever Retriever,
	embedder EmbedConnector,
	llm LLMConnector,
	cacheTTL time.Duration,
	cacheCleanup time.Duration,
	topK int,
	logger *zap.Logger,
) *Usecase {
	return &Usecase{
		convRepo:       convRepo,
		msgRepo:        msgRepo,
		retriever:      retriever,
		embedder:       embedder,
		llm:            llm,
		retrievalCache: gocache.New(cacheTTL, cacheCleanup),
		answerCache:    gocache.New(cacheTTL, cacheCleanup),
		formatters:     formatter.NewFactory(),
		topK:           topK,
		logger:         logger,
	}
}

// Ask answers a question inside a conversation, streaming chunks
// through emit. A missing conversation ID starts a new thread. The
// returned conversation reflects what the answer was recorded under.
func (uc *Usecase) Ask(ctx context.Context, conversationID, question string, emit func(entity.StreamChunk) error) (*entity.Conversation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: message", entity.ErrMissingField)
	}

	conv, err := uc.resolveConversation(ctx, conversationID, question)
	if err != nil {
		return nil, err
	}

	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.String("conversation_id", conv.ID),
	))

	history, err := uc.msgRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if _, err := uc.msgRepo.Create(ctx, entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           entity.RoleUser,
		Content:        question,
	}); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	contextBlock, err := uc.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	// Layer 2: a cached final answer short-circuits generation
	answerKey := cacheKey(question, contextBlock)
	if cached, ok := uc.answerCache.Get(answerKey); ok {
		answer := cached.(string)
		ctxzap.Info(ctx, "answer cache hit")

		if err := emit(entity.StreamChunk{Type: entity.StreamContent, Content: answer}); err != nil {
			return nil, err
		}
		if err := uc.saveAnswer(ctx, conv.ID, answer); err != nil {
			return nil, err
		}
		return conv, nil
	}

	prompt := BuildPrompt(history, contextBlock, question)

	scanner := NewThinkScanner()
	var answer strings.Builder

	emitChunks := func(chunks []entity.StreamChunk) error {
		for _, chunk := range chunks {
			if chunk.Type == entity.StreamContent {
				answer.WriteString(chunk.Content)
			}
			if err := emit(chunk); err != nil {
				return err
			}
		}
		return nil
	}

	err = uc.llm.GenerateStream(ctx, SystemPrompt, prompt, func(token string) error {
		return emitChunks(scanner.Feed(token))
	})
	if err != nil {
		return nil, err
	}
	if err := emitChunks(scanner.Flush()); err != nil {
		return nil, err
	}

	final := strings.TrimSpace(answer.String())
	if final != "" {
		uc.answerCache.SetDefault(answerKey, final)
	}

	if err := uc.saveAnswer(ctx, conv.ID, final); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "answer generated",
		zap.Int("answer_length", len(final)),
	)
	return conv, nil
}

// retrieve returns the context block for a question, serving repeat
// questions from the layer 1 cache.
func (uc *Usecase) retrieve(ctx context.Context, question string) (string, error) {
	if cached, ok := uc.retrievalCache.Get(question); ok {
		ctxzap.Debug(ctx, "retrieval cache hit")
		return cached.(string), nil
	}

	vec, err := uc.embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	scored := uc.retriever.Search(vec, uc.topK)
	contextBlock := FormatContext(scored)

	ctxzap.Debug(ctx, "context retrieved",
		zap.Int("chunks", len(scored)),
		zap.Int("context_length", len(contextBlock)),
	)

	uc.retrievalCache.SetDefault(question, contextBlock)
	return contextBlock, nil
}

func (uc *Usecase) resolveConversation(ctx context.Context, conversationID, question string) (*entity.Conversation, error) {
	if conversationID != "" {
		conv, err := uc.convRepo.Get(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		return conv, nil
	}

	conv, err := uc.convRepo.Create(ctx, entity.Conversation{
		ID:    uuid.New().String(),
		Title: makeTitle(question),
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (uc *Usecase) saveAnswer(ctx context.Context, conversationID, answer string) error {
	if answer == "" {
		return nil
	}

	if _, err := uc.msgRepo.Create(ctx, entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           entity.RoleAssistant,
		Content:        answer,
	}); err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}
	return nil
}

// GetConversation returns a conversation and its messages
func (uc *Usecase) GetConversation(ctx context.Context, id string) (*entity.Conversation, []*entity.Message, error) {
	conv, err := uc.convRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := uc.msgRepo.ListByConversation(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load messages: %w", err)
	}

	return conv, msgs, nil
}

// ListConversations returns all conversations
func (uc *Usecase) ListConversations(ctx context.Context) ([]*entity.Conversation, error) {
	return uc.convRepo.List(ctx)
}

// DeleteConversation removes a conversation with its messages
func (uc *Usecase) DeleteConversation(ctx context.Context, id string) error {
	if _, err := uc.convRepo.Get(ctx, id); err != nil {
		return err
	}
	return uc.convRepo.Delete(ctx, id)
}

// ExportTranscript renders a conversation transcript in the requested
// format and returns the payload with its content type and extension.
func (uc *Usecase) ExportTranscript(ctx context.Context, id string, format entity.ResultFormat) ([]byte, string, string, error) {
	conv, msgs, err := uc.GetConversation(ctx, id)
	if err != nil {
		return nil, "", "", err
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", entity.ErrInvalidParameter, err)
	}

	payload, err := f.Format(conv.Title, Transcript(msgs))
	if err != nil {
		return nil, "", "", fmt.Errorf("render transcript: %w", err)
	}

	return payload, f.ContentType(), f.FileExtension(), nil
}

// Transcript renders messages as alternating speaker lines
func Transcript(msgs []*entity.Message) string {
	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch msg.Role {
		case entity.RoleUser:
			sb.WriteString("You: ")
		case entity.RoleAssistant:
			sb.WriteString("Quiver: ")
		}
		sb.WriteString(msg.Content)
	}
	return sb.String()
}

func cacheKey(question, contextBlock string) string {
	h := sha256.New()
	h.Write([]byte(question))
	h.Write([]byte{0})
	h.Write([]byte(contextBlock))
	return hex.EncodeToString(h.Sum(nil))
}

// makeTitle derives a conversation title from its opening question
func makeTitle(question string) string {
	title := strings.Join(strings.Fields(question), " ")
	if utf8.RuneCountInString(title) <= maxTitleLength {
		return title
	}

	runes := []rune(title)
	return string(runes[:maxTitleLength-1]) + "…"
}
