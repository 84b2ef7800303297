package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/config"
	"github.com/quiverai/quiver/internal/telegram/handlers"
	"github.com/quiverai/quiver/internal/telegram/middleware"
	"github.com/quiverai/quiver/internal/telegram/state"
)

const welcomeMessage = `Hi, I'm Quiver. Ask me anything about the documents in the knowledge vault.

Commands:
/new - start a fresh conversation
/sources - list the vault contents`

// Bot represents the Telegram bot
type Bot struct {
	api         *tgbotapi.BotAPI
	cfg         *config.TelegramConfig
	states      *state.Manager
	chatHandler *handlers.ChatHandler
	knowledgeUC handlers.KnowledgeUsecase
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New creates a new Telegram bot
func New(
	cfg *config.TelegramConfig,
	chatUC handlers.ChatUsecase,
	knowledgeUC handlers.KnowledgeUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	// Create bot API instance
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	states := state.NewManager(24 * time.Hour)

	bot := &Bot{
		api:         api,
		cfg:         cfg,
		states:      states,
		chatHandler: handlers.NewChatHandler(api, chatUC, states, logger),
		knowledgeUC: knowledgeUC,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}

	// Initialize middleware
	bot.loggingMW = middleware.NewLoggingMiddleware(logger)
	bot.recoveryMW = middleware.NewRecoveryMiddleware(logger, api)
	bot.rateLimitMW = middleware.NewRateLimiterMiddleware(
		cfg.RateLimitPerMinute,
		cfg.RateLimitBurst,
		logger,
		api,
	)

	return bot, nil
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	// Configure updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	b.updatesChan = b.api.GetUpdatesChan(u)

	// Add logger to context for processUpdates
	ctx = ctxzap.ToContext(ctx, b.logger)

	// Start update processing loop
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	// Signal to stop receiving new updates
	close(b.stopChan)
	b.api.StopReceivingUpdates()

	// Wait for all active handlers to complete
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update := <-b.updatesChan:
			// Process update with middleware in separate goroutine
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware processes update through middleware chain
func (b *Bot) handleUpdateWithMiddleware(update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(u3)
			})
		})
	})
}

// handleUpdate routes update to appropriate handler
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	ctx := ctxzap.ToContext(context.Background(), b.logger.With(
		zap.Int64("user_id", update.Message.From.ID),
	))

	if update.Message.IsCommand() {
		b.handleCommand(ctx, update.Message)
		return
	}

	if update.Message.Text == "" {
		b.send(update.Message.Chat.ID, "Send me a text question about your documents.")
		return
	}

	b.chatHandler.Handle(ctx, update.Message)
}

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.states.Clear(message.From.ID)
		b.send(message.Chat.ID, welcomeMessage)

	case "new":
		b.states.Clear(message.From.ID)
		b.send(message.Chat.ID, "Started a new conversation.")

	case "sources":
		sources, counts, err := b.knowledgeUC.List(ctx)
		if err != nil {
			ctxzap.Error(ctx, "failed to list sources", zap.Error(err))
			b.send(message.Chat.ID, "Couldn't list the vault contents, please try again.")
			return
		}
		b.send(message.Chat.ID, handlers.FormatSources(sources, counts))

	default:
		b.send(message.Chat.ID, "Unknown command. Try /start, /new or /sources.")
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
