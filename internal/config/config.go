package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/quiverai/quiver/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration. The default keeps the port the original
	// UI was served on.
	ServerAddr string `env:"SERVER_ADDR" envDefault:"0.0.0.0:8501"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	OllamaCfg OllamaConfig `envPrefix:"OLLAMA_"`
	EmbedCfg  EmbedConfig  `envPrefix:"EMBED_"`

	// Document ingestion
	DocsPath     string `env:"DOCS_PATH" envDefault:"docs/"`
	ChunkSize    int    `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap int    `env:"CHUNK_OVERLAP" envDefault:"100"`

	// Retrieval & answer cache
	TopK          int           `env:"TOP_K" envDefault:"5"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	CacheCleanup  time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"10m"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (only required by the bot binary)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// OllamaConfig holds the generation model connector configuration
type OllamaConfig struct {
	HTTPClientConfig
	Model         string               `env:"MODEL" envDefault:"qwen3:4b"`
	Temperature   float64              `env:"TEMPERATURE" envDefault:"0"`
	ContextWindow int                  `env:"CONTEXT_LENGTH" envDefault:"8192"`
	Retry         pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// EmbedConfig holds the embedding model connector configuration
type EmbedConfig struct {
	HTTPClientConfig
	Model string               `env:"MODEL" envDefault:"all-minilm"`
	Retry pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"120s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL" envDefault:"http://127.0.0.1:11434"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"`    // 5 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"26214400"`  // 25 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"16"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // multipart memory limit
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"30"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.ChunkSize < 1 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}

	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be between 0 and CHUNK_SIZE(%d), got %d", cfg.ChunkSize, cfg.ChunkOverlap)
	}

	if cfg.TopK < 1 {
		return fmt.Errorf("TOP_K must be positive, got %d", cfg.TopK)
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		return fmt.Errorf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns)
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns)
	}

	if cfg.OllamaCfg.ContextWindow < 1 {
		return fmt.Errorf("OLLAMA_CONTEXT_LENGTH must be positive, got %d", cfg.OllamaCfg.ContextWindow)
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
