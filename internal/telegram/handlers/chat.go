package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/entity"
	"github.com/quiverai/quiver/internal/telegram/state"
)

// Telegram caps messages at 4096 characters
const maxMessageLength = 4096

// ChatHandler turns plain text messages into chat questions. The
// answer is collected in full and sent back as one or more messages,
// thinking chunks never reach the user.
type ChatHandler struct {
	api    *tgbotapi.BotAPI
	chatUC ChatUsecase
	states *state.Manager
	logger *zap.Logger
}

func NewChatHandler(api *tgbotapi.BotAPI, chatUC ChatUsecase, states *state.Manager, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		api:    api,
		chatUC: chatUC,
		states: states,
		logger: logger,
	}
}

// Handle answers a user's question inside their current conversation
func (h *ChatHandler) Handle(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	h.sendTyping(chatID)

	var answer strings.Builder
	conv, err := h.chatUC.Ask(ctx, h.states.Conversation(userID), message.Text, func(chunk entity.StreamChunk) error {
		if chunk.Type == entity.StreamContent {
			answer.WriteString(chunk.Content)
		}
		return nil
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to answer question",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		h.send(chatID, "I couldn't answer that, please try again.")
		return
	}

	h.states.SetConversation(userID, conv.ID)

	text := strings.TrimSpace(answer.String())
	if text == "" {
		text = "I have nothing to say about that."
	}

	for _, part := range splitMessage(text, maxMessageLength) {
		h.send(chatID, part)
	}
}

func (h *ChatHandler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

func (h *ChatHandler) sendTyping(chatID int64) {
	action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := h.api.Request(action); err != nil {
		h.logger.Debug("failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// splitMessage cuts text into pieces that fit a Telegram message,
// preferring newline boundaries.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// FormatSources renders the vault contents for the /sources command
func FormatSources(sources []*entity.Source, counts map[string]int) string {
	if len(sources) == 0 {
		return "The knowledge vault is empty."
	}

	var sb strings.Builder
	sb.WriteString("Knowledge vault:\n")
	for _, source := range sources {
		fmt.Fprintf(&sb, "\n• %s (%s, %d chunks)", source.Name, source.Type, counts[source.ID])
	}
	return sb.String()
}
