// Package embed integrates with the embedding model endpoint
// (/api/embeddings on an Ollama server).
package embed

import (
	"context"
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

const embeddingsEndpoint = "/api/embeddings"

type Connector struct {
	config    config.EmbedConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbedConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		logger:    logger,
	}
}

// Embed returns the embedding vector for one text
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &entity.OllamaEmbeddingsRequest{
		Model:  c.config.Model,
		Prompt: text,
	}

	var resp entity.OllamaEmbeddingsResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, embeddingsEndpoint, req, &resp)
	}, append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned empty vector")
	}

	vec := make([]float32, len(resp.Embedding))
	for i, x := range resp.Embedding {
		vec[i] = float32(x)
	}
	return vec, nil
}

// EmbedBatch embeds texts one by one. The Ollama embeddings endpoint
// takes a single prompt per call.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "embedding batch",
		zap.String("model", c.config.Model),
		zap.Int("texts", len(texts)),
	)

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
