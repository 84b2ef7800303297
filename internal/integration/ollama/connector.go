// Package ollama integrates with an Ollama model server over its HTTP
// API (/api/generate).
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/config"
	"github.com/quiverai/quiver/internal/entity"
	"github.com/quiverai/quiver/internal/integration/common"
	pkghttp "github.com/quiverai/quiver/pkg/http"
)

const generateEndpoint = "/api/generate"

type Connector struct {
	config    config.OllamaConfig
	connector *pkghttp.Connector
	streamer  *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.OllamaConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		streamer:  common.NewStreamConnector(cfg.HTTPClientConfig, logger),
		logger:    logger,
	}
}

func (c *Connector) options() *entity.OllamaOptions {
	return &entity.OllamaOptions{
		Temperature: c.config.Temperature,
		NumCtx:      c.config.ContextWindow,
	}
}

// Generate runs a full completion and returns the final text
func (c *Connector) Generate(ctx context.Context, system, prompt string) (string, error) {
	req := &entity.OllamaGenerateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		System:  system,
		Stream:  false,
		Options: c.options(),
	}

	ctxzap.Debug(ctx, "generating completion",
		zap.String("model", c.config.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	var resp entity.OllamaGenerateResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, generateEndpoint, req, &resp)
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	return resp.Response, nil
}

// GenerateStream runs a streaming completion, calling onToken for
// every response fragment. The request is not retried once tokens
// have been delivered.
func (c *Connector) GenerateStream(ctx context.Context, system, prompt string, onToken func(string) error) error {
	req := &entity.OllamaGenerateRequest{
		Model:   c.config.Model,
		Prompt:  prompt,
		System:  system,
		Stream:  true,
		Options: c.options(),
	}

	ctxzap.Debug(ctx, "streaming completion",
		zap.String("model", c.config.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	delivered := false
	handleLine := func(line []byte) error {
		var chunk entity.OllamaGenerateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("decode stream line: %w", err)
		}

		if chunk.Response != "" {
			delivered = true
			if err := onToken(chunk.Response); err != nil {
				return err
			}
		}
		return nil
	}

	err := retry.Do(func() error {
		return c.streamer.DoStreamRequest(ctx, http.MethodPost, generateEndpoint, req, handleLine)
	}, append(c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			// A partially delivered stream must not be replayed
			return !delivered
		}),
	)...)
	if err != nil {
		return fmt.Errorf("ollama generate stream: %w", err)
	}

	return nil
}
