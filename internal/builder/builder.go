package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/api"
	chatapi "github.com/quiverai/quiver/internal/api/chat"
	sourceapi "github.com/quiverai/quiver/internal/api/source"
	"github.com/quiverai/quiver/internal/chat"
	"github.com/quiverai/quiver/internal/config"
	"github.com/quiverai/quiver/internal/index"
	"github.com/quiverai/quiver/internal/integration/embed"
	"github.com/quiverai/quiver/internal/integration/ollama"
	"github.com/quiverai/quiver/internal/knowledge"
	"github.com/quiverai/quiver/internal/pkg/logger"
	"github.com/quiverai/quiver/internal/pkg/validator"
	"github.com/quiverai/quiver/internal/repository"
	"github.com/quiverai/quiver/internal/telegram"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	log.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully")

	knowledgeUC, chatUC, err := buildUsecases(ctx, cfg, db, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Setup API handlers
	uploadValidator := validator.NewValidator(cfg.FileUploadCfg)
	chatHandler := chatapi.NewHandler(chatUC)
	sourceHandler := sourceapi.NewHandler(knowledgeUC, cfg.FileUploadCfg, uploadValidator)
	log.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(chatHandler, sourceHandler, log)
	log.Info("HTTP router configured")

	// Create HTTP server. Write timeout stays unset because /chat
	// streams for as long as the model generates.
	server := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	log.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: log,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	log.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database migrations completed successfully")

	knowledgeUC, chatUC, err := buildUsecases(ctx, cfg, db, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	// Initialize Telegram bot
	bot, err := telegram.NewBot(&cfg.TelegramCfg, chatUC, knowledgeUC, log)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	log.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, log, nil
}

// buildUsecases wires the shared core: repositories, the vector index,
// the model connectors and the knowledge and chat use cases. The index
// is populated from the store before the caller starts serving.
func buildUsecases(ctx context.Context, cfg *config.Config, db *pgxpool.Pool, log *zap.Logger) (*knowledge.Usecase, *chat.Usecase, error) {
	// Initialize repositories
	sourceRepo := repository.NewSourcePostgres(db)
	chunkRepo := repository.NewChunkPostgres(db)
	convRepo := repository.NewConversationPostgres(db)
	msgRepo := repository.NewMessagePostgres(db)
	log.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var llmConnector chat.LLMConnector
	var embedConnector knowledge.EmbedConnector

	if cfg.EnableMocks {
		log.Info("Using mock connectors for external services")
		llmConnector = ollama.NewMockConnector(log)
		embedConnector = embed.NewMockConnector(log)
	} else {
		log.Info("Using real connectors for external services")
		llmConnector = ollama.NewConnector(cfg.OllamaCfg, log)
		embedConnector = embed.NewConnector(cfg.EmbedCfg, log)
	}

	// Initialize the in-memory vector index and the knowledge vault
	vectorIndex := index.New()
	loader := knowledge.NewLoader()
	splitter := knowledge.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	knowledgeUC := knowledge.NewUsecase(
		sourceRepo,
		chunkRepo,
		vectorIndex,
		embedConnector,
		loader,
		splitter,
		cfg.DocsPath,
		log,
	)

	// Load persisted chunks into the index before serving queries
	if err := knowledgeUC.Bootstrap(ctxzap.ToContext(ctx, log)); err != nil {
		return nil, nil, fmt.Errorf("bootstrap knowledge vault: %w", err)
	}

	chatUC := chat.NewUsecase(
		convRepo,
		msgRepo,
		vectorIndex,
		embedConnector,
		llmConnector,
		cfg.CacheTTL,
		cfg.CacheCleanup,
		cfg.TopK,
		log,
	)
	log.Info("Use cases initialized")

	return knowledgeUC, chatUC, nil
}
