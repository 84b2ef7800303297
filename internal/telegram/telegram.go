package telegram

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/config"
	"github.com/quiverai/quiver/internal/telegram/bot"
	"github.com/quiverai/quiver/internal/telegram/handlers"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	chatUC handlers.ChatUsecase,
	knowledgeUC handlers.KnowledgeUsecase,
	logger *zap.Logger,
) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	b, err := bot.New(cfg, chatUC, knowledgeUC, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")
	return b, nil
}
