package embed

import (
	"context"
	"hash/fnv"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockDimension = 16

// MockConnector produces deterministic pseudo-embeddings so retrieval
// is stable in mock mode: the same text always maps to the same vector.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Embed(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding text", zap.Int("length", len(text)))

	vec := make([]float32, mockDimension)
	h := fnv.New32a()
	for i := range vec {
		h.Write([]byte(text))
		h.Write([]byte{byte(i)})
		// Map the hash into [-1, 1)
		vec[i] = float32(int32(h.Sum32())) / float32(1<<31)
	}
	return vec, nil
}

func (m *MockConnector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}
